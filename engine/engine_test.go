package engine

import (
	"runtime"
	"testing"

	"github.com/joeycumines/go-rulesengine/accumulator"
	"github.com/joeycumines/go-rulesengine/expr"
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/monitor"
	"github.com/joeycumines/go-rulesengine/reservoir"
	"github.com/joeycumines/go-rulesengine/status"
)

func mustUnsigned(t *testing.T, width uint8, v uint64) status.Value {
	t.Helper()
	val, err := status.NewUnsigned(width, v)
	if err != nil {
		t.Fatal(err)
	}
	return val
}

func nonblockAssign(key ids.StatusKey, v status.Value) accumulator.Entry {
	return accumulator.Entry{
		Assignment: reservoir.StatusAssignment{Key: key, Op: status.OpCopy, RHS: reservoir.Literal(v)},
		Delay:      accumulator.Nonblock,
	}
}

func TestScenarioA_BasicTransition(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	hp := ids.StatusKey(1)
	lowHP := ids.ExpressionKey(1)

	if err := e.RegisterStatus(1, hp, mustUnsigned(t, 7, 10)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(lowHP, 1, expr.And, []expr.StatusComparisonElement{
		{Left: hp, Operator: status.Le, RHS: reservoir.Literal(mustUnsigned(t, 7, 3))},
	}); err != nil {
		t.Fatal(err)
	}

	predicate, err := kleene.BuildTransitionPredicate(kleene.PredTrue, kleene.PredFalse)
	if err != nil {
		t.Fatal(err)
	}
	var calls []kleene.Ternary
	d := &monitor.Delegate{Invoke: func(key ids.ExpressionKey, transition uint8) { calls = append(calls, kleene.Ternary(transition&0b111)) }}
	if err := e.RegisterHook(lowHP, predicate, 0, d); err != nil {
		t.Fatal(err)
	}

	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Fatalf("tick 1: expected no invocation, got %d", len(calls))
	}

	e.Accumulate(nonblockAssign(hp, mustUnsigned(t, 7, 2)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("tick 2: expected exactly 1 invocation, got %d", len(calls))
	}

	e.Accumulate(nonblockAssign(hp, mustUnsigned(t, 7, 20)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("tick 3: expected no new invocation, got %d total", len(calls))
	}

	e.Accumulate(nonblockAssign(hp, mustUnsigned(t, 7, 1)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("tick 4: expected 2 total invocations, got %d", len(calls))
	}
}

func TestScenarioB_Compound(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	a := ids.StatusKey(1)
	b := ids.StatusKey(2)
	eA := ids.ExpressionKey(1)
	eB := ids.ExpressionKey(2)
	eOr := ids.ExpressionKey(3)

	if err := e.RegisterStatus(1, a, status.NewBool(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatus(1, b, status.NewBool(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(eA, 1, expr.And, []expr.StatusComparisonElement{
		{Left: a, Operator: status.Eq, RHS: reservoir.Literal(status.NewBool(true))},
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(eB, 1, expr.And, []expr.StatusComparisonElement{
		{Left: b, Operator: status.Eq, RHS: reservoir.Literal(status.NewBool(true))},
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterSubExpression(eOr, 1, expr.Or, []expr.SubExpressionElement{
		{Key: eA, Condition: true},
		{Key: eB, Condition: true},
	}); err != nil {
		t.Fatal(err)
	}

	predicate, err := kleene.BuildTransitionPredicate(kleene.PredTrue, kleene.NotTrue)
	if err != nil {
		t.Fatal(err)
	}
	var count int
	d := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) { count++ }}
	if err := e.RegisterHook(eOr, predicate, 0, d); err != nil {
		t.Fatal(err)
	}

	e.Accumulate(nonblockAssign(a, status.NewBool(true)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 invocation after a:=true, got %d", count)
	}

	e.Accumulate(nonblockAssign(b, status.NewBool(true)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected no new invocation (True to True), got %d total", count)
	}

	e.Accumulate(nonblockAssign(a, status.NewBool(false)))
	e.Accumulate(nonblockAssign(b, status.NewBool(false)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected no new invocation (current False), got %d total", count)
	}

	e.Accumulate(nonblockAssign(a, status.NewBool(true)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 total invocations, got %d", count)
	}
}

func TestScenarioC_AccumulatorYield(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	n := ids.StatusKey(1)
	pos := ids.ExpressionKey(1)

	if err := e.RegisterStatus(1, n, mustUnsigned(t, 8, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(pos, 1, expr.And, []expr.StatusComparisonElement{
		{Left: n, Operator: status.Gt, RHS: reservoir.Literal(mustUnsigned(t, 8, 0))},
	}); err != nil {
		t.Fatal(err)
	}
	predicate, err := kleene.BuildTransitionPredicate(kleene.PredTrue, kleene.PredFalse)
	if err != nil {
		t.Fatal(err)
	}
	var count int
	d := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) { count++ }}
	if err := e.RegisterHook(pos, predicate, 0, d); err != nil {
		t.Fatal(err)
	}

	e.Accumulate(accumulator.Entry{Assignment: reservoir.StatusAssignment{Key: n, Op: status.OpCopy, RHS: reservoir.Literal(mustUnsigned(t, 8, 5))}, Delay: accumulator.Yield})
	e.Accumulate(accumulator.Entry{Assignment: reservoir.StatusAssignment{Key: n, Op: status.OpCopy, RHS: reservoir.Literal(mustUnsigned(t, 8, 10))}, Delay: accumulator.Yield})

	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	got, ok := e.FindStatus(n)
	if !ok {
		t.Fatal("expected n to be registered")
	}
	if v, _ := got.Uint(); v != 5 {
		t.Fatalf("expected n == 5 after first flush, got %d", v)
	}
	if count != 1 {
		t.Fatalf("expected hook to fire once, got %d", count)
	}

	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}
	got, ok = e.FindStatus(n)
	if !ok {
		t.Fatal("expected n to be registered")
	}
	if v, _ := got.Uint(); v != 10 {
		t.Fatalf("expected n == 10 after second flush, got %d", v)
	}
	if count != 1 {
		t.Fatalf("expected no new invocation (True to True), got %d total", count)
	}
}

func TestScenarioD_PriorityOrdering(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)

	if err := e.RegisterStatus(1, s, status.NewBool(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(ek, 1, expr.And, []expr.StatusComparisonElement{
		{Left: s, Operator: status.Eq, RHS: reservoir.Literal(status.NewBool(true))},
	}); err != nil {
		t.Fatal(err)
	}
	predicate, err := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	mk := func(n int) *monitor.Delegate {
		return &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) { order = append(order, n) }}
	}
	d1, d2, d3 := mk(1), mk(2), mk(3)
	if err := e.RegisterHook(ek, predicate, 10, d1); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterHook(ek, predicate, 0, d2); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterHook(ek, predicate, -5, d3); err != nil {
		t.Fatal(err)
	}

	e.Accumulate(nonblockAssign(s, status.NewBool(true)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestScenarioE_WeakDelegateGC(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)

	if err := e.RegisterStatus(1, s, status.NewBool(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusComparison(ek, 1, expr.And, []expr.StatusComparisonElement{
		{Left: s, Operator: status.Eq, RHS: reservoir.Literal(status.NewBool(true))},
	}); err != nil {
		t.Fatal(err)
	}
	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)

	func() {
		d := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) {
			t.Fatal("delegate should have been collected before this could fire")
		}}
		if err := e.RegisterHook(ek, predicate, 0, d); err != nil {
			t.Fatal(err)
		}
	}()

	runtime.GC()
	runtime.GC()

	e.Accumulate(nonblockAssign(s, status.NewBool(true)))
	if err := e.Tick(); err != nil {
		t.Fatal(err)
	}

	hooks, ok := e.FindHook(ek)
	if ok {
		for _, h := range hooks {
			if _, live := h.Resolve(); live {
				t.Fatal("expected no live hooks to remain after GC + dispatch")
			}
		}
	}
}

func TestScenarioF_OverflowRefusal(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	x := ids.StatusKey(1)
	if err := e.RegisterStatus(1, x, mustUnsigned(t, 4, 0)); err != nil {
		t.Fatal(err)
	}

	overflow, err := status.NewUnsigned(4, 16)
	if err == nil {
		if e.reservoir.Assign(x, overflow) {
			t.Fatal("expected overflow assignment to be refused")
		}
	}

	got, ok := e.FindStatus(x)
	if !ok {
		t.Fatal("expected x to still be registered")
	}
	if v, _ := got.Uint(); v != 0 {
		t.Fatalf("expected x to remain 0 after refused overflow, got %d", v)
	}

	fits := mustUnsigned(t, 4, 15)
	if !e.reservoir.Assign(x, fits) {
		t.Fatal("expected in-range assignment to succeed")
	}
	got, ok = e.FindStatus(x)
	if !ok {
		t.Fatal("expected x to still be registered")
	}
	if v, _ := got.Uint(); v != 15 {
		t.Fatalf("expected x == 15, got %d", v)
	}
}

func TestRoundTripRegisterAndFind(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	k := ids.StatusKey(42)
	v := mustUnsigned(t, 10, 500)
	if err := e.RegisterStatus(1, k, v); err != nil {
		t.Fatal(err)
	}
	got, ok := e.FindStatus(k)
	if !ok {
		t.Fatal("expected status to be found")
	}
	if gv, _ := got.Uint(); gv != 500 {
		t.Fatalf("got %d, want 500", gv)
	}

	format, ok := e.FindBitFormat(k)
	if !ok {
		t.Fatal("expected bit format to resolve")
	}
	kind, width, ok := status.ParseBitFormat(format)
	if !ok || kind != status.KindUnsigned || width != 10 {
		t.Fatalf("ParseBitFormat round-trip mismatch: kind=%v width=%d ok=%v", kind, width, ok)
	}
}

func TestRemoveChunkUnknown(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveChunk(ids.ChunkKey(99)); err != ErrUnknownChunk {
		t.Fatalf("expected ErrUnknownChunk, got %v", err)
	}
}

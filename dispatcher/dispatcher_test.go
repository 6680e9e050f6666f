package dispatcher

import (
	"testing"

	"github.com/joeycumines/go-rulesengine/expr"
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/monitor"
	"github.com/joeycumines/go-rulesengine/reservoir"
	"github.com/joeycumines/go-rulesengine/status"
)

func setup(t *testing.T) (*reservoir.Reservoir, *expr.Evaluator, *Dispatcher) {
	t.Helper()
	r := reservoir.New()
	e := expr.New()
	reg := monitor.NewRegistry()
	d := New(reg, e)
	return r, e, d
}

func registerBoolStatusTransitionExpr(t *testing.T, r *reservoir.Reservoir, e *expr.Evaluator, status_ ids.StatusKey, exprKey ids.ExpressionKey) {
	t.Helper()
	if err := r.RegisterStatus(1, status_, newBool(false)); err != nil {
		t.Fatal(err)
	}
	if err := e.RegisterStatusTransition(exprKey, 1, expr.And, []expr.StatusTransitionElement{
		{Key: status_},
	}); err != nil {
		t.Fatal(err)
	}
}

func newBool(b bool) status.Value { return status.NewBool(b) }

func TestDispatchFiresOnTransitionMatch(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, err := kleene.BuildTransitionPredicate(kleene.PredTrue, kleene.Any)
	if err != nil {
		t.Fatal(err)
	}

	var invoked []uint8
	del := &monitor.Delegate{Invoke: func(key ids.ExpressionKey, transition uint8) {
		invoked = append(invoked, transition)
	}}
	if err := d.RegisterHook(r, ek, predicate, 0, del); err != nil {
		t.Fatal(err)
	}

	// First dispatch: status hasn't changed, expression is not dirty.
	if err := d.Dispatch(r); err != nil {
		t.Fatal(err)
	}
	if len(invoked) != 0 {
		t.Fatalf("expected no invocation before any status change, got %d", len(invoked))
	}

	// Change the status: now the StatusTransitionElement reads True.
	r.Assign(s, newBool(true))
	if err := d.Dispatch(r); err != nil {
		t.Fatal(err)
	}
	if len(invoked) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(invoked))
	}
}

func TestDispatchInvokesInPriorityOrder(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)

	var order []int
	mk := func(n int) *monitor.Delegate {
		return &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) { order = append(order, n) }}
	}
	high := mk(1)
	low := mk(2)
	mid := mk(3)
	if err := d.RegisterHook(r, ek, predicate, 10, high); err != nil {
		t.Fatal(err)
	}
	if err := d.RegisterHook(r, ek, predicate, 30, low); err != nil {
		t.Fatal(err)
	}
	if err := d.RegisterHook(r, ek, predicate, 20, mid); err != nil {
		t.Fatal(err)
	}

	r.Assign(s, newBool(true))
	if err := d.Dispatch(r); err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 2}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestDispatchSkipsUnregisteredDelegate(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)
	del := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) {
		t.Fatal("an unregistered delegate must not be invoked")
	}}
	if err := d.RegisterHook(r, ek, predicate, 0, del); err != nil {
		t.Fatal(err)
	}

	// After UnregisterHook the expression has an empty hook list; the
	// dispatch below must run without invoking del.
	if err := d.UnregisterHook(ek, del); err != nil {
		t.Fatal(err)
	}
	r.Assign(s, newBool(true))
	if err := d.Dispatch(r); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchReentrancyGuard(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)
	var reentrantErr error
	del := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) {
		reentrantErr = d.Dispatch(r)
	}}
	if err := d.RegisterHook(r, ek, predicate, 0, del); err != nil {
		t.Fatal(err)
	}

	r.Assign(s, newBool(true))
	if err := d.Dispatch(r); err != nil {
		t.Fatal(err)
	}
	if reentrantErr != ErrReentrantDispatch {
		t.Fatalf("expected ErrReentrantDispatch from a nested Dispatch call, got %v", reentrantErr)
	}
}

func TestRemoveChunkMarksDirtyInvalidAndDropsExpression(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)
	del := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) {}}
	if err := d.RegisterHook(r, ek, predicate, 0, del); err != nil {
		t.Fatal(err)
	}

	if err := d.RemoveChunk(r, ids.ChunkKey(1)); err != nil {
		t.Fatal(err)
	}
	if em, ok := d.registry.FindExpressionMonitor(ek); !ok || !em.DirtyInvalid() {
		t.Fatal("expression depending on a removed status should be marked DirtyInvalid")
	}
	if _, ok := e.FindExpression(ek); ok {
		t.Fatal("expression should be gone after its chunk is removed")
	}
	if _, ok := r.FindStatus(s); ok {
		t.Fatal("status should be gone after its chunk is removed")
	}
}

func TestShrinkPrunesDeadHookMonitors(t *testing.T) {
	r, e, d := setup(t)
	s := ids.StatusKey(1)
	ek := ids.ExpressionKey(1)
	registerBoolStatusTransitionExpr(t, r, e, s, ek)

	predicate, _ := kleene.BuildTransitionPredicate(kleene.Any, kleene.Any)
	del := &monitor.Delegate{Invoke: func(ids.ExpressionKey, uint8) {}}
	if err := d.RegisterHook(r, ek, predicate, 0, del); err != nil {
		t.Fatal(err)
	}
	if err := d.UnregisterHook(ek, del); err != nil {
		t.Fatal(err)
	}
	d.Shrink()
	if _, ok := d.registry.FindExpressionMonitor(ek); ok {
		t.Fatal("expression monitor with no remaining hooks should be pruned by Shrink")
	}
}

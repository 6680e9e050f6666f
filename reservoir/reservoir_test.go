package reservoir

import (
	"testing"

	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/status"
)

func TestRegisterAndFindStatus(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v, _ := status.NewUnsigned(8, 42)
	if err := r.RegisterStatus(1, key, v); err != nil {
		t.Fatal(err)
	}
	got, ok := r.FindStatus(key)
	if !ok {
		t.Fatal("FindStatus not ok")
	}
	if u, _ := got.Uint(); u != 42 {
		t.Errorf("got %d, want 42", u)
	}
}

func TestRegisterDuplicateKeyFails(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v := status.NewBool(true)
	if err := r.RegisterStatus(1, key, v); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterStatus(1, key, v); err == nil {
		t.Fatal("expected ErrDuplicateKey")
	}
}

func TestFindStatusUnknownKey(t *testing.T) {
	r := New()
	if _, ok := r.FindStatus(ids.StatusKey(99)); ok {
		t.Fatal("expected not-ok for unknown key")
	}
}

func TestAssignSetsTransitionOnlyOnChange(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v, _ := status.NewUnsigned(8, 1)
	if err := r.RegisterStatus(1, key, v); err != nil {
		t.Fatal(err)
	}
	if tr := r.FindTransition(key); tr != kleene.False {
		t.Fatalf("new status should have no transition yet, got %v", tr)
	}

	same, _ := status.NewUnsigned(8, 1)
	if !r.Assign(key, same) {
		t.Fatal("assign of identical value should still succeed")
	}
	if tr := r.FindTransition(key); tr != kleene.False {
		t.Fatalf("assigning the same value should not set transition, got %v", tr)
	}

	different, _ := status.NewUnsigned(8, 2)
	if !r.Assign(key, different) {
		t.Fatal("assign should succeed")
	}
	if tr := r.FindTransition(key); tr != kleene.True {
		t.Fatalf("assigning a different value should set transition, got %v", tr)
	}
}

func TestResetTransitionsClearsFlags(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v, _ := status.NewUnsigned(8, 1)
	r.RegisterStatus(1, key, v)
	different, _ := status.NewUnsigned(8, 2)
	r.Assign(key, different)
	if tr := r.FindTransition(key); tr != kleene.True {
		t.Fatal("expected transition set before reset")
	}
	r.ResetTransitions()
	if tr := r.FindTransition(key); tr != kleene.False {
		t.Fatalf("expected transition cleared after reset, got %v", tr)
	}
}

func TestAssignOverflowLeavesValueUnchanged(t *testing.T) {
	// Scenario F.
	r := New()
	key := ids.StatusKey(1)
	v, _ := status.NewUnsigned(4, 10)
	if err := r.RegisterStatus(1, key, v); err != nil {
		t.Fatal(err)
	}
	sixteen, err := status.NewUnsigned(8, 16)
	if err != nil {
		t.Fatal(err)
	}
	if r.Assign(key, sixteen) {
		t.Fatal("assigning 16 into a 4-bit status should fail (overflow)")
	}
	got, _ := r.FindStatus(key)
	if u, _ := got.Uint(); u != 10 {
		t.Errorf("value should be unchanged after failed assign, got %d", u)
	}
	if tr := r.FindTransition(key); tr != kleene.False {
		t.Fatal("failed assign must not set the transition flag")
	}
}

func TestAssignDivideByZeroLeavesUnchanged(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v, _ := status.NewUnsigned(8, 10)
	r.RegisterStatus(1, key, v)
	zero, _ := status.NewUnsigned(8, 0)
	if r.AssignStatus(StatusAssignment{Key: key, Op: status.OpDiv, RHS: Literal(zero)}) {
		t.Fatal("divide by zero should fail")
	}
	got, _ := r.FindStatus(key)
	if u, _ := got.Uint(); u != 10 {
		t.Errorf("value should be unchanged, got %d", u)
	}
}

func TestAssignStatusReferenceRHS(t *testing.T) {
	r := New()
	a := ids.StatusKey(1)
	b := ids.StatusKey(2)
	av, _ := status.NewUnsigned(8, 3)
	bv, _ := status.NewUnsigned(8, 4)
	r.RegisterStatus(1, a, av)
	r.RegisterStatus(1, b, bv)

	if !r.AssignStatus(StatusAssignment{Key: a, Op: status.OpAdd, RHS: Ref(b)}) {
		t.Fatal("assign with reference RHS should succeed")
	}
	got, _ := r.FindStatus(a)
	if u, _ := got.Uint(); u != 7 {
		t.Errorf("got %d, want 7", u)
	}
}

func TestCompareStatus(t *testing.T) {
	r := New()
	a := ids.StatusKey(1)
	b := ids.StatusKey(2)
	av, _ := status.NewUnsigned(8, 5)
	bv, _ := status.NewUnsigned(8, 10)
	r.RegisterStatus(1, a, av)
	r.RegisterStatus(1, b, bv)

	if got := r.CompareStatus(StatusComparison{Left: a, Operator: status.Lt, RHS: Ref(b)}); got != kleene.True {
		t.Errorf("5 < 10 should be True, got %v", got)
	}
	if got := r.CompareStatus(StatusComparison{Left: a, Operator: status.Eq, RHS: Ref(ids.StatusKey(99))}); got != kleene.Failed {
		t.Errorf("compare against unknown key should Fail, got %v", got)
	}
}

func TestRemoveChunkCascades(t *testing.T) {
	r := New()
	key := ids.StatusKey(1)
	v := status.NewBool(true)
	r.RegisterStatus(7, key, v)
	if !r.RemoveChunk(7) {
		t.Fatal("RemoveChunk should report true for a known chunk")
	}
	if _, ok := r.FindStatus(key); ok {
		t.Fatal("status should be gone after its chunk is removed")
	}
	if r.RemoveChunk(7) {
		t.Fatal("removing an already-removed chunk should report false")
	}
}

func TestMultipleStatusesShareChunk(t *testing.T) {
	r := New()
	a := ids.StatusKey(1)
	b := ids.StatusKey(2)
	r.RegisterStatus(1, a, status.NewBool(true))
	r.RegisterStatus(1, b, status.NewBool(false))

	av, _ := r.FindStatus(a)
	bv, _ := r.FindStatus(b)
	if ab, _ := av.Bool(); !ab {
		t.Error("a should be true")
	}
	if bb, _ := bv.Bool(); bb {
		t.Error("b should be false")
	}

	keys := r.StatusKeys(1)
	if len(keys) != 2 {
		t.Fatalf("expected 2 status keys in chunk 1, got %d", len(keys))
	}
}

package monitor

import "weak"

// Hook is a registered (transition predicate, priority, delegate) triple
// on an ExpressionMonitor. Transition is the packed predicate byte built
// by kleene.BuildTransitionPredicate; Priority orders concurrently-firing
// hooks (ascending, stable) within a single dispatch, per spec §4.6.
//
// The delegate reference is weak (modeled on eventloop/registry.go's
// weak.Pointer[promise] registry), so a host that drops its last strong
// reference to a Delegate doesn't need to remember to unregister every
// Hook that pointed at it — the dead hook is collected the next time it's
// swept (Dispatcher.Dispatch or Dispatcher.Shrink).
type Hook struct {
	Transition byte
	Priority   int32
	delegate   weak.Pointer[Delegate]
}

// NewHook builds a Hook holding a weak reference to d.
func NewHook(transition byte, priority int32, d *Delegate) *Hook {
	return &Hook{Transition: transition, Priority: priority, delegate: weak.Make(d)}
}

// Resolve strongly resolves the hook's delegate, reporting false if it
// has been garbage collected.
func (h *Hook) Resolve() (*Delegate, bool) {
	d := h.delegate.Value()
	return d, d != nil
}

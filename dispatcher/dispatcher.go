// Package dispatcher implements Dispatcher: the per-tick pipeline that
// turns reservoir writes into matched hook invocations (spec §4.6).
//
// Thread Safety: like the rest of the engine, Dispatcher is confined to a
// single caller goroutine; its re-entrancy guard only detects a Dispatch
// (or registration call) nested within a delegate invoked by a Dispatch
// already on the same call stack, not concurrent use from another
// goroutine.
package dispatcher

import (
	"sort"

	"github.com/joeycumines/go-rulesengine/expr"
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/monitor"
	"github.com/joeycumines/go-rulesengine/reservoir"
)

// cachedInvocation is one matched (expression, transition, delegate)
// triple queued during evaluation, to be invoked in priority order once
// every dirty expression has been evaluated.
type cachedInvocation struct {
	key        ids.ExpressionKey
	transition uint8
	priority   int32
	delegate   *monitor.Delegate
}

// Dispatcher owns the dependency-tracking Registry and evaluates against
// an Evaluator, running the nine-step pipeline from spec §4.6 once per
// Dispatch call.
type Dispatcher struct {
	registry  *monitor.Registry
	evaluator *expr.Evaluator

	dispatching bool

	// cache is reused across ticks (truncated, not reallocated) so a
	// busy dispatch loop doesn't churn the allocator every tick; it only
	// grows past its current capacity on the first tick that needs more.
	cache []cachedInvocation
}

// New returns a Dispatcher backed by the given Registry and Evaluator.
func New(registry *monitor.Registry, evaluator *expr.Evaluator) *Dispatcher {
	return &Dispatcher{registry: registry, evaluator: evaluator}
}

// GrowCache pre-sizes the per-tick invocation cache to capacity, letting
// a host that knows roughly how many hooks fire per tick avoid the
// early reallocations that would otherwise happen as the cache grows
// lazily (engine.WithHookCacheCapacity wires this).
func (d *Dispatcher) GrowCache(capacity int) {
	if capacity > cap(d.cache) {
		d.cache = make([]cachedInvocation, 0, capacity)
	}
}

// RegisterHook wires predicate/priority/delegate onto key's
// ExpressionMonitor, running the dependency-registration walk
// (Evaluator.CollectDependencies) the first time key is hooked so later
// status writes mark it dirty. r seeds each newly-wired dependency's
// StatusMonitor.LastExistence from whether the status is already
// registered, so wiring against a pre-existing status doesn't read as a
// spurious appear-flip on the next Dispatch (see
// monitor.Registry.RegisterDependency). Fails with ErrReentrantDispatch
// if called from inside a Dispatch.
func (d *Dispatcher) RegisterHook(r *reservoir.Reservoir, key ids.ExpressionKey, predicate uint8, priority int32, delegate *monitor.Delegate) error {
	if d.dispatching {
		return ErrReentrantDispatch
	}
	em := d.registry.ExpressionMonitorFor(key)
	if !em.DependenciesRegistered() {
		for _, status := range d.evaluator.CollectDependencies(key) {
			d.registry.RegisterDependency(status, key, r.FindTransition(status) != kleene.Failed)
		}
		em.SetDependenciesRegistered(true)
	}
	em.AddHook(monitor.NewHook(predicate, priority, delegate))
	return nil
}

// UnregisterHook removes every hook on key whose delegate is identical to
// delegate. Fails with ErrReentrantDispatch if called from inside a
// Dispatch.
func (d *Dispatcher) UnregisterHook(key ids.ExpressionKey, delegate *monitor.Delegate) error {
	if d.dispatching {
		return ErrReentrantDispatch
	}
	em, ok := d.registry.FindExpressionMonitor(key)
	if !ok {
		return nil
	}
	alive := em.Hooks[:0:0]
	for _, h := range em.Hooks {
		if resolved, ok := h.Resolve(); ok && resolved == delegate {
			continue
		}
		alive = append(alive, h)
	}
	em.Hooks = alive
	return nil
}

// RemoveChunk cascades a chunk removal through the Reservoir, the
// Evaluator, and the monitor Registry: every status in chunkKey is
// marked DirtyInvalid on its dependent expressions before the chunk (and
// those expressions' storage) disappears. Fails with
// ErrReentrantDispatch if called from inside a Dispatch.
func (d *Dispatcher) RemoveChunk(r *reservoir.Reservoir, chunkKey ids.ChunkKey) error {
	if d.dispatching {
		return ErrReentrantDispatch
	}
	for _, status := range r.StatusKeys(chunkKey) {
		d.registry.MarkStatusRemoved(status)
	}
	r.RemoveChunk(chunkKey)
	d.evaluator.RemoveChunk(chunkKey)
	return nil
}

// Shrink forces an out-of-tick dead-hook sweep and monitor prune
// (SPEC_FULL.md §6.1), a no-op while a Dispatch is in progress.
func (d *Dispatcher) Shrink() {
	if d.dispatching {
		return
	}
	d.registry.Shrink()
}

// Dispatch runs one tick's pipeline against r: pruning dead hooks,
// propagating dirty flags from statuses that changed since the last
// tick, evaluating every dirty expression and queuing any hook whose
// transition predicate matches, resetting the reservoir's transition
// flags, then invoking the queued delegates in ascending, stable
// priority order (spec §4.6's nine steps). Fails with
// ErrReentrantDispatch if called re-entrantly.
func (d *Dispatcher) Dispatch(r *reservoir.Reservoir) error {
	if d.dispatching {
		return ErrReentrantDispatch
	}
	d.dispatching = true
	defer func() { d.dispatching = false }()

	// Step: prune hooks whose delegate has been garbage collected.
	for _, key := range d.registry.ExpressionKeys() {
		if em, ok := d.registry.FindExpressionMonitor(key); ok {
			em.SweepHooks()
		}
	}

	// Step: propagate dirty flags from statuses that changed, appeared,
	// or disappeared this tick (tracking each StatusMonitor's
	// LastExistence to detect the appear/disappear edges).
	for _, status := range d.registry.StatusKeys() {
		d.registry.PropagateStatus(status, r.FindTransition(status))
	}

	// Step: evaluate every dirty expression, matching hooks against the
	// (current, last) transition byte.
	d.cache = d.cache[:0]
	for _, key := range d.registry.ExpressionKeys() {
		em, ok := d.registry.FindExpressionMonitor(key)
		if !ok || !em.Dirty() {
			continue
		}
		last := em.LastEvaluation()
		flushed := em.Flush()
		current := d.evaluator.EvaluateExpression(key, r)
		em.RecordEvaluation(current)
		em.SetDirtyValid(false)
		em.SetDirtyInvalid(false)

		transition, ok := kleene.Transition(current, last)
		if !ok {
			continue
		}
		for _, h := range em.Hooks {
			if flushed {
				if !kleene.MatchesFlush(current, h.Transition) {
					continue
				}
			} else if !kleene.Matches(transition, h.Transition) {
				continue
			}
			if delegate, ok := h.Resolve(); ok {
				d.cache = append(d.cache, cachedInvocation{
					key:        key,
					transition: transition,
					priority:   h.Priority,
					delegate:   delegate,
				})
			}
		}
	}

	// Step: reset the reservoir's transition flags for the next tick.
	r.ResetTransitions()

	// Step: stable-sort the matched invocations by ascending priority.
	sort.SliceStable(d.cache, func(i, j int) bool {
		return d.cache[i].priority < d.cache[j].priority
	})

	// Step: invoke delegates in priority order.
	for _, inv := range d.cache {
		inv.delegate.Invoke(inv.key, inv.transition)
	}

	return nil
}

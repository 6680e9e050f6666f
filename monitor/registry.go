package monitor

import (
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
)

// Registry owns every StatusMonitor and ExpressionMonitor, keyed by
// status/expression key, plus the reverse dependency lists needed to
// prune a StatusMonitor when the last expression depending on it is
// removed (spec §4.5).
type Registry struct {
	statuses     map[ids.StatusKey]*StatusMonitor
	expressions  map[ids.ExpressionKey]*ExpressionMonitor
	dependencies map[ids.ExpressionKey][]ids.StatusKey
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		statuses:     make(map[ids.StatusKey]*StatusMonitor),
		expressions:  make(map[ids.ExpressionKey]*ExpressionMonitor),
		dependencies: make(map[ids.ExpressionKey][]ids.StatusKey),
	}
}

// StatusMonitorFor returns key's StatusMonitor, creating it if absent.
func (r *Registry) StatusMonitorFor(key ids.StatusKey) *StatusMonitor {
	sm, ok := r.statuses[key]
	if !ok {
		sm = &StatusMonitor{}
		r.statuses[key] = sm
	}
	return sm
}

// ExpressionMonitorFor returns key's ExpressionMonitor, creating it
// (Flush-flagged) if absent.
func (r *Registry) ExpressionMonitorFor(key ids.ExpressionKey) *ExpressionMonitor {
	em, ok := r.expressions[key]
	if !ok {
		em = NewExpressionMonitor()
		r.expressions[key] = em
	}
	return em
}

// FindStatusMonitor returns key's StatusMonitor without creating one.
func (r *Registry) FindStatusMonitor(key ids.StatusKey) (*StatusMonitor, bool) {
	sm, ok := r.statuses[key]
	return sm, ok
}

// FindExpressionMonitor returns key's ExpressionMonitor without creating
// one.
func (r *Registry) FindExpressionMonitor(key ids.ExpressionKey) (*ExpressionMonitor, bool) {
	em, ok := r.expressions[key]
	return em, ok
}

// RegisterDependency records that expr's evaluation reads status, wiring
// status's StatusMonitor to expr and expr's reverse dependency list —
// the walk spec §4.5 calls "dependency registration." existsNow seeds a
// freshly created StatusMonitor's LastExistence (ignored if the monitor
// already existed), so wiring a dependency against a status that's
// already registered in the Reservoir doesn't read as a spurious
// appear-flip the first time PropagateStatus runs.
func (r *Registry) RegisterDependency(status ids.StatusKey, expr ids.ExpressionKey, existsNow bool) {
	_, existed := r.statuses[status]
	sm := r.StatusMonitorFor(status)
	if !existed {
		sm.LastExistence = existsNow
	}
	sm.AddExpression(expr)
	for _, existing := range r.dependencies[expr] {
		if existing == status {
			return
		}
	}
	r.dependencies[expr] = append(r.dependencies[expr], status)
}

// Dependencies returns the status keys expr was registered as depending
// on.
func (r *Registry) Dependencies(expr ids.ExpressionKey) []ids.StatusKey {
	return r.dependencies[expr]
}

// MarkStatusChanged propagates a status write into DirtyValid on every
// expression monitor that depends on it (spec §4.6 step 3).
func (r *Registry) MarkStatusChanged(status ids.StatusKey) {
	sm, ok := r.statuses[status]
	if !ok {
		return
	}
	for _, exprKey := range sm.ExpressionKeys {
		if em, ok := r.expressions[exprKey]; ok {
			em.SetDirtyValid(true)
		}
	}
}

// PropagateStatus applies one status's this-tick transition reading
// into dirty flags on every expression that depends on it, tracking the
// status's existence across ticks via StatusMonitor.LastExistence (spec
// §4.5): Failed after having existed marks DirtyInvalid (the status
// disappeared); True marks DirtyValid (an ordinary change); False after
// not having existed also marks DirtyValid, since the status just came
// into being (e.g. RegisterStatus never sets the transition flag) and
// no dependent has ever observed its value. False after having already
// existed leaves dependents untouched. A no-op if status has no
// StatusMonitor (nothing depends on it).
func (r *Registry) PropagateStatus(status ids.StatusKey, transition kleene.Ternary) {
	sm, ok := r.statuses[status]
	if !ok {
		return
	}
	switch transition {
	case kleene.Failed:
		if sm.LastExistence {
			for _, exprKey := range sm.ExpressionKeys {
				if em, ok := r.expressions[exprKey]; ok {
					em.SetDirtyInvalid(true)
				}
			}
		}
		sm.LastExistence = false
	case kleene.True:
		for _, exprKey := range sm.ExpressionKeys {
			if em, ok := r.expressions[exprKey]; ok {
				em.SetDirtyValid(true)
			}
		}
		sm.LastExistence = true
	case kleene.False:
		if !sm.LastExistence {
			for _, exprKey := range sm.ExpressionKeys {
				if em, ok := r.expressions[exprKey]; ok {
					em.SetDirtyValid(true)
				}
			}
		}
		sm.LastExistence = true
	}
}

// MarkStatusRemoved propagates a status's removal into DirtyInvalid on
// every expression monitor that depended on it, then discards the
// StatusMonitor itself (the status no longer exists to depend on).
func (r *Registry) MarkStatusRemoved(status ids.StatusKey) {
	sm, ok := r.statuses[status]
	if !ok {
		return
	}
	for _, exprKey := range sm.ExpressionKeys {
		if em, ok := r.expressions[exprKey]; ok {
			em.SetDirtyInvalid(true)
		}
	}
	delete(r.statuses, status)
}

// RemoveExpression discards expr's ExpressionMonitor and its dependency
// records, pruning any StatusMonitor left with no remaining dependents.
func (r *Registry) RemoveExpression(expr ids.ExpressionKey) {
	for _, status := range r.dependencies[expr] {
		if sm, ok := r.statuses[status]; ok {
			sm.RemoveExpression(expr)
			if sm.Empty() {
				delete(r.statuses, status)
			}
		}
	}
	delete(r.dependencies, expr)
	delete(r.expressions, expr)
}

// StatusKeys returns every status key currently tracked by a
// StatusMonitor, for the dispatcher's dirty-propagation scan (spec §4.6
// step 3) — only statuses with at least one dependent expression are
// worth checking.
func (r *Registry) StatusKeys() []ids.StatusKey {
	keys := make([]ids.StatusKey, 0, len(r.statuses))
	for k := range r.statuses {
		keys = append(keys, k)
	}
	return keys
}

// ExpressionKeys returns every expression key with a registered monitor.
func (r *Registry) ExpressionKeys() []ids.ExpressionKey {
	keys := make([]ids.ExpressionKey, 0, len(r.expressions))
	for k := range r.expressions {
		keys = append(keys, k)
	}
	return keys
}

// Shrink sweeps every ExpressionMonitor's dead hooks and prunes any
// monitor left with none, the explicit out-of-tick GC pass
// (SPEC_FULL.md §6.1; grounded on the original's explicit "shrink"
// operation).
func (r *Registry) Shrink() {
	for key, em := range r.expressions {
		em.SweepHooks()
		if em.Empty() {
			r.RemoveExpression(key)
		}
	}
}

package monitor

import "github.com/joeycumines/go-rulesengine/kleene"

// flagBits is the compact bitset backing ExpressionMonitor's state, in
// the spirit of a small closed enum rather than several bool fields.
type flagBits uint8

const (
	// flagDirtyValid marks that a dependency's value changed since the
	// last evaluation — the expression needs re-evaluating this tick.
	flagDirtyValid flagBits = 1 << iota
	// flagDirtyInvalid marks that a dependency was structurally removed
	// (e.g. its chunk was dropped) since the last evaluation.
	flagDirtyInvalid
	// flagLastEvaluationConcrete records that the last cached evaluation
	// was True or False (as opposed to Failed).
	flagLastEvaluationConcrete
	// flagLastCondition records that the last cached evaluation was True;
	// meaningless unless flagLastEvaluationConcrete is also set.
	flagLastCondition
	// flagFlush marks an expression monitor that has never completed a
	// dispatch since its dependencies were wired: per spec §4.5/§4.6, the
	// first dispatch after wiring must treat "last" as Failed regardless
	// of any cached value.
	flagFlush
	// flagDependenciesRegistered marks that the dependency-registration
	// walk (populating every dependency's StatusMonitor) has already run
	// for this expression, so Dispatcher.RegisterHook runs the walk only
	// once per expression.
	flagDependenciesRegistered
)

// ExpressionMonitor is the per-expression dispatch state: its registered
// hooks, and the flag bits tracking dirtiness and the cached last
// evaluation used to build a Hook's transition byte (spec §4.5).
type ExpressionMonitor struct {
	Hooks []*Hook
	flags flagBits
}

// NewExpressionMonitor returns a monitor in the "never dispatched" state
// (Flush set), per the first-dispatch-treats-last-as-Failed rule.
func NewExpressionMonitor() *ExpressionMonitor {
	return &ExpressionMonitor{flags: flagFlush}
}

func (m *ExpressionMonitor) setFlag(bit flagBits, v bool) {
	if v {
		m.flags |= bit
	} else {
		m.flags &^= bit
	}
}

// DirtyValid reports whether a dependency's value changed since the last
// evaluation.
func (m *ExpressionMonitor) DirtyValid() bool { return m.flags&flagDirtyValid != 0 }

// SetDirtyValid sets or clears the DirtyValid flag.
func (m *ExpressionMonitor) SetDirtyValid(v bool) { m.setFlag(flagDirtyValid, v) }

// DirtyInvalid reports whether a dependency was structurally removed
// since the last evaluation.
func (m *ExpressionMonitor) DirtyInvalid() bool { return m.flags&flagDirtyInvalid != 0 }

// SetDirtyInvalid sets or clears the DirtyInvalid flag.
func (m *ExpressionMonitor) SetDirtyInvalid(v bool) { m.setFlag(flagDirtyInvalid, v) }

// Dirty reports whether this expression needs re-evaluating this tick,
// for either reason.
func (m *ExpressionMonitor) Dirty() bool { return m.DirtyValid() || m.DirtyInvalid() }

// Flush reports whether this monitor has not yet completed a dispatch
// since its dependencies were (re)wired.
func (m *ExpressionMonitor) Flush() bool { return m.flags&flagFlush != 0 }

// SetFlush sets or clears the Flush flag.
func (m *ExpressionMonitor) SetFlush(v bool) { m.setFlag(flagFlush, v) }

// DependenciesRegistered reports whether the dependency-registration walk
// has already run for this expression.
func (m *ExpressionMonitor) DependenciesRegistered() bool {
	return m.flags&flagDependenciesRegistered != 0
}

// SetDependenciesRegistered sets or clears the DependenciesRegistered flag.
func (m *ExpressionMonitor) SetDependenciesRegistered(v bool) {
	m.setFlag(flagDependenciesRegistered, v)
}

// LastEvaluation returns the cached Ternary outcome from the previous
// completed dispatch, or Failed if this monitor is still flagged Flush
// (spec's first-dispatch rule) or has never recorded one.
func (m *ExpressionMonitor) LastEvaluation() kleene.Ternary {
	if m.Flush() {
		return kleene.Failed
	}
	if m.flags&flagLastEvaluationConcrete == 0 {
		return kleene.Failed
	}
	if m.flags&flagLastCondition != 0 {
		return kleene.True
	}
	return kleene.False
}

// LastCondition reports the raw LastCondition bit (spec naming), ignoring
// Flush — callers wanting the spec-faithful "last" value for Transition
// should use LastEvaluation instead.
func (m *ExpressionMonitor) LastCondition() bool { return m.flags&flagLastCondition != 0 }

// RecordEvaluation caches v as the new "last evaluation" and clears
// Flush, marking this monitor as having completed at least one dispatch.
func (m *ExpressionMonitor) RecordEvaluation(v kleene.Ternary) {
	m.flags &^= flagLastEvaluationConcrete | flagLastCondition
	switch v {
	case kleene.True:
		m.flags |= flagLastEvaluationConcrete | flagLastCondition
	case kleene.False:
		m.flags |= flagLastEvaluationConcrete
	}
	m.SetFlush(false)
}

// AddHook appends h to this monitor's hook list.
func (m *ExpressionMonitor) AddHook(h *Hook) {
	m.Hooks = append(m.Hooks, h)
}

// SweepHooks drops every hook whose delegate has been garbage collected,
// returning the number removed (the lazy per-dispatch collection
// modeled on eventloop/registry.go's scavenge, simplified to a linear
// sweep since a single expression's hook list is expected to stay small;
// see DESIGN.md).
func (m *ExpressionMonitor) SweepHooks() (removed int) {
	alive := m.Hooks[:0]
	for _, h := range m.Hooks {
		if _, ok := h.Resolve(); ok {
			alive = append(alive, h)
		} else {
			removed++
		}
	}
	m.Hooks = alive
	return removed
}

// Empty reports whether this monitor has no live hooks, the condition
// under which the owning Registry may prune it (spec §4.5).
func (m *ExpressionMonitor) Empty() bool { return len(m.Hooks) == 0 }

package expr

import (
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/reservoir"
)

// Evaluator owns every registered Expression and the per-chunk element
// slices its expressions index into.
type Evaluator struct {
	expressions map[ids.ExpressionKey]Expression

	subExpressions    map[ids.ChunkKey][]SubExpressionElement
	statusTransitions map[ids.ChunkKey][]StatusTransitionElement
	statusComparisons map[ids.ChunkKey][]StatusComparisonElement
}

// New returns an empty Evaluator.
func New() *Evaluator {
	return &Evaluator{
		expressions:       make(map[ids.ExpressionKey]Expression),
		subExpressions:    make(map[ids.ChunkKey][]SubExpressionElement),
		statusTransitions: make(map[ids.ChunkKey][]StatusTransitionElement),
		statusComparisons: make(map[ids.ChunkKey][]StatusComparisonElement),
	}
}

func (e *Evaluator) register(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic Logic, kind ElementKind, begin, end uint32) error {
	e.expressions[key] = Expression{
		ChunkKey:    chunkKey,
		Logic:       logic,
		ElementKind: kind,
		Begin:       begin,
		End:         end,
	}
	return nil
}

// RegisterSubExpression registers key as the Kleene-logic combination of
// elements, each referencing another already-registered expression. This
// is the engine's sole cycle guard (spec §4.4): since every referenced
// key must already exist in e.expressions, no expression can ever (even
// indirectly) reference itself.
func (e *Evaluator) RegisterSubExpression(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic Logic, elements []SubExpressionElement) error {
	if _, exists := e.expressions[key]; exists {
		return ErrDuplicateKey
	}
	if len(elements) == 0 {
		return ErrEmptyExpression
	}
	for _, el := range elements {
		if _, ok := e.expressions[el.Key]; !ok {
			return ErrUnknownSubExpression
		}
	}
	slice := e.subExpressions[chunkKey]
	begin := uint32(len(slice))
	slice = append(slice, elements...)
	e.subExpressions[chunkKey] = slice
	return e.register(key, chunkKey, logic, KindSubExpression, begin, uint32(len(slice)))
}

// RegisterStatusTransition registers key as the Kleene-logic combination
// of status-transition elements.
func (e *Evaluator) RegisterStatusTransition(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic Logic, elements []StatusTransitionElement) error {
	if _, exists := e.expressions[key]; exists {
		return ErrDuplicateKey
	}
	if len(elements) == 0 {
		return ErrEmptyExpression
	}
	slice := e.statusTransitions[chunkKey]
	begin := uint32(len(slice))
	slice = append(slice, elements...)
	e.statusTransitions[chunkKey] = slice
	return e.register(key, chunkKey, logic, KindStatusTransition, begin, uint32(len(slice)))
}

// RegisterStatusComparison registers key as the Kleene-logic combination
// of status-comparison elements.
func (e *Evaluator) RegisterStatusComparison(key ids.ExpressionKey, chunkKey ids.ChunkKey, logic Logic, elements []StatusComparisonElement) error {
	if _, exists := e.expressions[key]; exists {
		return ErrDuplicateKey
	}
	if len(elements) == 0 {
		return ErrEmptyExpression
	}
	slice := e.statusComparisons[chunkKey]
	begin := uint32(len(slice))
	slice = append(slice, elements...)
	e.statusComparisons[chunkKey] = slice
	return e.register(key, chunkKey, logic, KindStatusComparison, begin, uint32(len(slice)))
}

// FindExpression returns the registered Expression record for key.
func (e *Evaluator) FindExpression(key ids.ExpressionKey) (Expression, bool) {
	exp, ok := e.expressions[key]
	return exp, ok
}

// CollectDependencies walks key's element tree (recursing through nested
// sub-expressions) and returns the deduplicated set of status keys it
// ultimately reads — the dependency-registration walk spec §4.5
// describes, used by the monitor/dispatcher layer to wire each status's
// StatusMonitor to every expression that (transitively) reads it.
func (e *Evaluator) CollectDependencies(key ids.ExpressionKey) []ids.StatusKey {
	seenExpr := make(map[ids.ExpressionKey]bool)
	seenStatus := make(map[ids.StatusKey]bool)
	var walk func(ids.ExpressionKey)
	walk = func(k ids.ExpressionKey) {
		if seenExpr[k] {
			return
		}
		seenExpr[k] = true
		exp, ok := e.expressions[k]
		if !ok {
			return
		}
		switch exp.ElementKind {
		case KindSubExpression:
			for _, el := range e.subExpressions[exp.ChunkKey][exp.Begin:exp.End] {
				walk(el.Key)
			}
		case KindStatusTransition:
			for _, el := range e.statusTransitions[exp.ChunkKey][exp.Begin:exp.End] {
				seenStatus[el.Key] = true
			}
		case KindStatusComparison:
			for _, el := range e.statusComparisons[exp.ChunkKey][exp.Begin:exp.End] {
				seenStatus[el.Left] = true
				if el.RHS.IsRef() {
					seenStatus[el.RHS.RefKey()] = true
				}
			}
		}
	}
	walk(key)
	out := make([]ids.StatusKey, 0, len(seenStatus))
	for k := range seenStatus {
		out = append(out, k)
	}
	return out
}

// RemoveChunk drops every expression whose elements live in chunkKey,
// along with that chunk's element slices. Callers that also track
// dependent monitors/sub-expressions in other chunks (the engine driver)
// are responsible for cascading further, per SPEC_FULL.md §5.6.
func (e *Evaluator) RemoveChunk(chunkKey ids.ChunkKey) {
	for key, exp := range e.expressions {
		if exp.ChunkKey == chunkKey {
			delete(e.expressions, key)
		}
	}
	delete(e.subExpressions, chunkKey)
	delete(e.statusTransitions, chunkKey)
	delete(e.statusComparisons, chunkKey)
}

// applyCondition negates a Ternary outcome when condition is false,
// leaving Failed untouched (spec §4.4's element inversion rule).
func applyCondition(v kleene.Ternary, condition bool) kleene.Ternary {
	if condition {
		return v
	}
	switch v {
	case kleene.True:
		return kleene.False
	case kleene.False:
		return kleene.True
	default:
		return kleene.Failed
	}
}

func and2(a, b kleene.Ternary) kleene.Ternary {
	if a == kleene.False || b == kleene.False {
		return kleene.False
	}
	if a == kleene.Failed || b == kleene.Failed {
		return kleene.Failed
	}
	return kleene.True
}

func or2(a, b kleene.Ternary) kleene.Ternary {
	if a == kleene.True || b == kleene.True {
		return kleene.True
	}
	if a == kleene.Failed || b == kleene.Failed {
		return kleene.Failed
	}
	return kleene.False
}

// combine folds elems through the Kleene AND/OR table, short-circuiting
// the moment the running result hits the absorbing value (False for And,
// True for Or) — exactly as spec §4.4 requires.
func combine[T any](logic Logic, elems []T, f func(T) kleene.Ternary) kleene.Ternary {
	var result kleene.Ternary
	var absorbing kleene.Ternary
	if logic == Or {
		result = kleene.False
		absorbing = kleene.True
	} else {
		result = kleene.True
		absorbing = kleene.False
	}
	for _, el := range elems {
		v := f(el)
		if logic == Or {
			result = or2(result, v)
		} else {
			result = and2(result, v)
		}
		if result == absorbing {
			return result
		}
	}
	return result
}

// EvaluateExpression implements spec §4.4's evaluate(key, reservoir) ->
// Ternary: Failed if key is unregistered, otherwise the Kleene
// combination of key's elements, recursing through nested sub-
// expressions.
func (e *Evaluator) EvaluateExpression(key ids.ExpressionKey, r *reservoir.Reservoir) kleene.Ternary {
	exp, ok := e.expressions[key]
	if !ok {
		return kleene.Failed
	}
	switch exp.ElementKind {
	case KindSubExpression:
		elems := e.subExpressions[exp.ChunkKey][exp.Begin:exp.End]
		return combine(exp.Logic, elems, func(el SubExpressionElement) kleene.Ternary {
			return applyCondition(e.EvaluateExpression(el.Key, r), el.Condition)
		})
	case KindStatusTransition:
		elems := e.statusTransitions[exp.ChunkKey][exp.Begin:exp.End]
		return combine(exp.Logic, elems, func(el StatusTransitionElement) kleene.Ternary {
			return r.FindTransition(el.Key)
		})
	case KindStatusComparison:
		elems := e.statusComparisons[exp.ChunkKey][exp.Begin:exp.End]
		return combine(exp.Logic, elems, func(el StatusComparisonElement) kleene.Ternary {
			return r.CompareStatus(reservoir.StatusComparison{Left: el.Left, Operator: el.Operator, RHS: el.RHS})
		})
	default:
		return kleene.Failed
	}
}

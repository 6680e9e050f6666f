// Package expr implements Expression and Evaluator: the tree of
// sub-expression/status-transition/status-comparison elements and the
// three-valued (Kleene) evaluator that combines them (spec §4.4).
package expr

import (
	"errors"

	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/reservoir"
	"github.com/joeycumines/go-rulesengine/status"
)

// Errors returned by Evaluator registration (spec §7).
var (
	ErrDuplicateKey         = errors.New("expr: expression key already registered")
	ErrEmptyExpression      = errors.New("expr: expression has no elements")
	ErrUnknownSubExpression = errors.New("expr: sub-expression references an unregistered expression")
)

// Logic is the combination rule applied across an expression's elements.
type Logic uint8

const (
	// And combines elements with Kleene AND (absorbing element: False).
	And Logic = iota
	// Or combines elements with Kleene OR (absorbing element: True).
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "Or"
	}
	return "And"
}

// ElementKind selects which per-chunk element slice an Expression's
// [Begin, End) range indexes into.
type ElementKind uint8

const (
	// KindSubExpression combines other already-registered expressions.
	KindSubExpression ElementKind = iota
	// KindStatusTransition tests whether statuses changed this tick.
	KindStatusTransition
	// KindStatusComparison tests statuses against literals or other
	// statuses.
	KindStatusComparison
)

// Expression is a registered rule condition: which chunk its elements
// live in, how they combine, which element slice they're drawn from, and
// the [Begin, End) range within that slice.
type Expression struct {
	ChunkKey    ids.ChunkKey
	Logic       Logic
	ElementKind ElementKind
	Begin       uint32
	End         uint32
}

// SubExpressionElement evaluates another expression and optionally
// inverts its Ternary result (Condition == false negates True/False,
// leaving Failed untouched).
type SubExpressionElement struct {
	Key       ids.ExpressionKey
	Condition bool
}

// StatusTransitionElement evaluates whether a status's value changed
// this tick (reservoir.FindTransition). Unlike SubExpressionElement, it
// carries no Condition/inversion flag — the spec's element variants give
// that only to SubExpression.
type StatusTransitionElement struct {
	Key ids.StatusKey
}

// StatusComparisonElement evaluates a status comparison
// (reservoir.CompareStatus). Unlike SubExpressionElement, it carries no
// Condition/inversion flag — the spec's element variants give that only
// to SubExpression.
type StatusComparisonElement struct {
	Left     ids.StatusKey
	Operator status.Operator
	RHS      reservoir.RHS
}

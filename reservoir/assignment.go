package reservoir

import (
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/status"
)

// RHS is the right-hand side of a StatusAssignment or StatusComparison: a
// literal status.Value, or a reference to another status key resolved at
// call time against the Reservoir (spec §4.3's "RHS as literal or status
// key reference").
type RHS struct {
	literal status.Value
	ref     ids.StatusKey
	isRef   bool
}

// Literal builds an RHS carrying a literal value.
func Literal(v status.Value) RHS {
	return RHS{literal: v}
}

// Ref builds an RHS that resolves to another status's current value.
func Ref(key ids.StatusKey) RHS {
	return RHS{ref: key, isRef: true}
}

// IsRef reports whether rhs references another status key, rather than
// carrying a literal value.
func (rhs RHS) IsRef() bool { return rhs.isRef }

// RefKey returns the referenced status key, meaningful only when IsRef
// is true. Used by the dependency-registration walk (spec §4.5) to learn
// which statuses a StatusComparisonElement's RHS depends on.
func (rhs RHS) RefKey() ids.StatusKey { return rhs.ref }

// StatusAssignment is a deferred or immediate write: target key, operator,
// and RHS (spec §4.3/§4.7).
type StatusAssignment struct {
	Key ids.StatusKey
	Op  status.AssignOp
	RHS RHS
}

// StatusComparison is a read-only comparison against a status: left key,
// operator, and RHS (spec §4.3).
type StatusComparison struct {
	Left     ids.StatusKey
	Operator status.Operator
	RHS      RHS
}

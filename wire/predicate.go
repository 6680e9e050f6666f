package wire

import (
	"fmt"

	"github.com/joeycumines/go-rulesengine/kleene"
)

// ErrUnknownPredicateToken is returned by ParsePredicateToken for an
// unrecognized single-evaluation predicate token.
var ErrUnknownPredicateToken = fmt.Errorf("wire: unrecognized predicate token")

// ParsePredicateToken parses one of the single-evaluation predicate
// tokens a handler-table row's CONDITION column names (spec §6):
// `True`, `False`, `Failed`/`Null`, `NotTrue`/`!True`, `NotFalse`/
// `!False`, `NotFailed`/`!Null`, `Any`.
func ParsePredicateToken(token string) (kleene.Predicate, error) {
	switch token {
	case "True":
		return kleene.PredTrue, nil
	case "False":
		return kleene.PredFalse, nil
	case "Failed", "Null":
		return kleene.PredFailed, nil
	case "NotTrue", "!True":
		return kleene.NotTrue, nil
	case "NotFalse", "!False":
		return kleene.NotFalse, nil
	case "NotFailed", "!Null":
		return kleene.NotFailed, nil
	case "Any":
		return kleene.Any, nil
	default:
		return kleene.Invalid, fmt.Errorf("%w: %q", ErrUnknownPredicateToken, token)
	}
}

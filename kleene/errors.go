package kleene

import "errors"

// ErrInvalidPredicate is returned by BuildTransitionPredicate when a hook's
// (current, last) predicate tokens are Invalid, or describe a transition
// that could never occur (current always equals last after expansion).
var ErrInvalidPredicate = errors.New("kleene: invalid transition predicate")

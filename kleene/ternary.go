package kleene

import "fmt"

// Ternary is the result of a three-valued (Kleene) logic evaluation: a
// boolean outcome that can also be Failed when the outcome is unknown —
// a referenced status is missing, a comparison mixed incompatible kinds,
// or a sub-expression itself evaluated to Failed.
//
// The three values are represented as distinct bit flags rather than a
// 0/1/2 enum so a single Ternary doubles as a one-element Predicate, and
// so a (current, last) evaluation pair packs into one byte with no
// further translation (see Transition).
type Ternary uint8

const (
	// Failed means the evaluation's outcome is unknown.
	Failed Ternary = 1 << iota
	// False is a concrete negative outcome.
	False
	// True is a concrete positive outcome.
	True
)

// String returns a human-readable name for t.
func (t Ternary) String() string {
	switch t {
	case Failed:
		return "Failed"
	case False:
		return "False"
	case True:
		return "True"
	default:
		return fmt.Sprintf("Ternary(%d)", uint8(t))
	}
}

// Pack returns the 3-bit code used when building a transition byte. It is
// only meaningful for the three concrete values (Failed, False, True);
// Predicate sets must not be passed here.
func (t Ternary) Pack() uint8 {
	return uint8(t)
}

// Bool reports the boolean interpretation of t, and whether t was a
// concrete (non-Failed) outcome.
func (t Ternary) Bool() (value bool, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

// FromBool converts a plain boolean into the corresponding concrete
// Ternary value.
func FromBool(b bool) Ternary {
	if b {
		return True
	}
	return False
}

// Predicate is a set of acceptable single-evaluation outcomes, encoded as
// the bitwise OR of Failed/False/True. It shares Ternary's bit layout so
// a single Ternary value is already a valid (singleton) Predicate.
type Predicate = uint8

// Single-evaluation predicate tokens, per spec §4.6/§6.
const (
	Invalid   Predicate = 0
	PredFailed Predicate = Predicate(Failed)
	PredFalse  Predicate = Predicate(False)
	PredTrue   Predicate = Predicate(True)

	NotTrue   Predicate = PredFailed | PredFalse
	NotFalse  Predicate = PredFailed | PredTrue
	NotFailed Predicate = PredFalse | PredTrue
	Any       Predicate = PredFailed | PredFalse | PredTrue
)

// PredicateName maps the well-known single-evaluation predicate tokens to
// their canonical name, per §6's handler-table CONDITION column.
func PredicateName(p Predicate) string {
	switch p {
	case Invalid:
		return "Invalid"
	case PredFailed:
		return "Failed"
	case PredFalse:
		return "False"
	case PredTrue:
		return "True"
	case NotTrue:
		return "NotTrue"
	case NotFalse:
		return "NotFalse"
	case NotFailed:
		return "NotFailed"
	case Any:
		return "Any"
	default:
		return fmt.Sprintf("Predicate(%d)", p)
	}
}

// allValues enumerates the three concrete Ternary outcomes, used when
// expanding a Predicate set into individual values.
var allValues = [3]Ternary{Failed, False, True}

// Transition packs a concrete (current, last) evaluation pair into the
// byte a Hook's transition predicate is matched against: current in the
// low 3 bits, last in the next 3 bits. ok is false when current == last,
// since the spec treats an unchanged evaluation as the invalid sentinel —
// no hook may match it.
func Transition(current, last Ternary) (transition uint8, ok bool) {
	if current == last {
		return 0, false
	}
	return current.Pack() | (last.Pack() << 3), true
}

// Matches reports whether a concrete transition byte satisfies a hook's
// registered predicate byte, per §4.6: (transition & predicate) ==
// transition.
func Matches(transition, predicate uint8) bool {
	return transition != 0 && (transition&predicate) == transition
}

// MatchesFlush reports whether predicate's current-evaluation set
// accepts current, ignoring predicate's last-evaluation bits entirely.
// It is used in place of Matches on an expression's first evaluation
// since its dependencies were wired (ExpressionMonitor.Flush): per spec,
// that tick's "last" is forced to Failed to flag it as not a real
// observation, so a hook registered against some other last value (e.g.
// current=True, last=False) must still fire — Flush means "ignore the
// previous condition once," not "require last=Failed."
func MatchesFlush(current Ternary, predicate uint8) bool {
	return predicate&current.Pack() != 0
}

// BuildTransitionPredicate expands a hook registration's (current, last)
// predicate tokens into the full transition-predicate byte stored on the
// Hook: the bitwise OR, over every (c, l) pair drawn from the currentSet
// and lastSet crosses product, of Transition(c, l) for pairs where c != l.
//
// It fails with ErrInvalidPredicate if either set is Invalid (0), or if
// every pair in the cross product is impossible (c == l for all of
// them — only possible when both sets are the same singleton value),
// since such a hook could never fire.
func BuildTransitionPredicate(currentSet, lastSet Predicate) (uint8, error) {
	if currentSet == Invalid || lastSet == Invalid {
		return 0, ErrInvalidPredicate
	}
	var transition uint8
	for _, c := range allValues {
		if currentSet&uint8(c) == 0 {
			continue
		}
		for _, l := range allValues {
			if lastSet&uint8(l) == 0 {
				continue
			}
			if b, ok := Transition(c, l); ok {
				transition |= b
			}
		}
	}
	if transition == 0 {
		return 0, ErrInvalidPredicate
	}
	return transition, nil
}

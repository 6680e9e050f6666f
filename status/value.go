package status

import (
	"errors"

	"golang.org/x/exp/constraints"

	"github.com/joeycumines/go-rulesengine/kleene"
)

// Errors returned by Value construction (spec §7's WidthOverflow).
var (
	ErrInvalidWidth  = errors.New("status: width out of range [2, 64]")
	ErrWidthOverflow = errors.New("status: value does not fit declared width")
)

// DefaultEpsilonScale is the default multiplier applied to float64's
// machine epsilon when comparing Float values for equality (spec §3: "an
// epsilon of epsilon(float) * 4 (configurable constant, default 4)").
const DefaultEpsilonScale = 4.0

// float64Epsilon is the machine epsilon for float64 (2^-52).
const float64Epsilon = 2.220446049250313e-16

// Value is the tagged-union StatusValue from spec §3: Empty, Bool,
// Unsigned(width), Signed(width), or Float. The zero Value is Empty.
type Value struct {
	kind  Kind
	width uint8
	b     bool
	u     uint64
	i     int64
	f     float64
}

// Empty returns the uninitialized / lookup-failure value.
func Empty() Value {
	return Value{kind: KindEmpty}
}

// NewBool constructs a Bool value.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewFloat constructs a Float value.
func NewFloat(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// NewUnsigned constructs an Unsigned value of the given width, failing if
// width is out of [2, 64] or v does not fit in width bits.
func NewUnsigned(width uint8, v uint64) (Value, error) {
	if width < 2 || width > Nmax {
		return Value{}, ErrInvalidWidth
	}
	if !FitsUnsigned(width, v) {
		return Value{}, ErrWidthOverflow
	}
	return Value{kind: KindUnsigned, width: width, u: v}, nil
}

// NewSigned constructs a Signed value of the given width, failing if width
// is out of [2, 64] or v does not fit in width bits two's-complement.
func NewSigned(width uint8, v int64) (Value, error) {
	if width < 2 || width > Nmax {
		return Value{}, ErrInvalidWidth
	}
	if !FitsSigned(width, v) {
		return Value{}, ErrWidthOverflow
	}
	return Value{kind: KindSigned, width: width, i: v}, nil
}

// Kind returns v's variant tag.
func (v Value) Kind() Kind { return v.kind }

// Width returns the declared bit width for Unsigned/Signed values, or 0
// otherwise (per the invariant that Bool and Float ignore width).
func (v Value) Width() uint8 { return v.width }

// IsEmpty reports whether v is the Empty variant.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Bool returns v's boolean payload, and whether v is a Bool.
func (v Value) Bool() (value bool, ok bool) {
	return v.b, v.kind == KindBool
}

// Uint returns v's unsigned payload, and whether v is Unsigned.
func (v Value) Uint() (value uint64, ok bool) {
	return v.u, v.kind == KindUnsigned
}

// Int returns v's signed payload, and whether v is Signed.
func (v Value) Int() (value int64, ok bool) {
	return v.i, v.kind == KindSigned
}

// Float returns v's float payload, and whether v is Float.
func (v Value) Float() (value float64, ok bool) {
	return v.f, v.kind == KindFloat
}

// BitFormat returns the one-byte public encoding of v's kind and width.
func (v Value) BitFormat() byte {
	return BitFormat(v.kind, v.width)
}

// FitsUnsigned reports whether v fits in an unsigned field of the given
// width.
func FitsUnsigned(width uint8, v uint64) bool {
	if width >= 64 {
		return true
	}
	return v < (uint64(1) << width)
}

// FitsSigned reports whether v fits in a two's-complement signed field of
// the given width.
func FitsSigned(width uint8, v int64) bool {
	if width >= 64 {
		return true
	}
	max := int64(1)<<(width-1) - 1
	min := -(int64(1) << (width - 1))
	return v >= min && v <= max
}

// losslessUint64ToFloat64 reports whether v can be represented exactly as
// a float64 (magnitude within the 53-bit mantissa).
func losslessUint64ToFloat64(v uint64) bool {
	const limit = uint64(1) << 53
	return v <= limit
}

// losslessInt64ToFloat64 reports whether v can be represented exactly as
// a float64.
func losslessInt64ToFloat64(v int64) bool {
	const limit = int64(1) << 53
	if v < 0 {
		return v >= -limit
	}
	return v <= limit
}

// toFloatLossless converts v to float64, succeeding trivially for Float
// and only when lossless for Unsigned/Signed, per spec §4.1's promotion
// rule.
func (v Value) toFloatLossless() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindUnsigned:
		if !losslessUint64ToFloat64(v.u) {
			return 0, false
		}
		return float64(v.u), true
	case KindSigned:
		if !losslessInt64ToFloat64(v.i) {
			return 0, false
		}
		return float64(v.i), true
	default:
		return 0, false
	}
}

func boolToOrd(b bool) int {
	if b {
		return 1
	}
	return 0
}

// orderResult applies a comparison operator to a three-way ordering
// result (cmp < 0, == 0, or > 0).
func orderResult(cmp int, op Operator) kleene.Ternary {
	switch op {
	case Eq:
		return kleene.FromBool(cmp == 0)
	case Ne:
		return kleene.FromBool(cmp != 0)
	case Lt:
		return kleene.FromBool(cmp < 0)
	case Le:
		return kleene.FromBool(cmp <= 0)
	case Gt:
		return kleene.FromBool(cmp > 0)
	case Ge:
		return kleene.FromBool(cmp >= 0)
	default:
		return kleene.Failed
	}
}

// compareUnsignedSigned implements the "negative signed compares less
// than any unsigned" rule from spec §4.1.
func compareUnsignedSigned(u uint64, s int64) int {
	if s < 0 {
		return 1 // u (>= 0) is always greater than a negative s
	}
	su := uint64(s)
	switch {
	case u < su:
		return -1
	case u > su:
		return 1
	default:
		return 0
	}
}

// Compare implements spec §4.1's compare(op, other) -> Ternary, including
// the cross-kind promotion rules. epsilonScale configures the float
// equality tolerance (see DefaultEpsilonScale); a non-positive value falls
// back to DefaultEpsilonScale.
func (v Value) Compare(op Operator, other Value, epsilonScale float64) kleene.Ternary {
	if epsilonScale <= 0 {
		epsilonScale = DefaultEpsilonScale
	}
	if v.kind == KindEmpty || other.kind == KindEmpty {
		return kleene.Failed
	}
	if v.kind == KindBool || other.kind == KindBool {
		if v.kind != KindBool || other.kind != KindBool {
			return kleene.Failed
		}
		return orderResult(boolToOrd(v.b)-boolToOrd(other.b), op)
	}
	if v.kind == KindFloat || other.kind == KindFloat {
		lf, lok := v.toFloatLossless()
		rf, rok := other.toFloatLossless()
		if !lok || !rok {
			return kleene.Failed
		}
		return compareFloat(lf, rf, op, epsilonScale)
	}
	// Both Unsigned/Signed at this point.
	switch {
	case v.kind == KindUnsigned && other.kind == KindUnsigned:
		return orderResult(cmpUint64(v.u, other.u), op)
	case v.kind == KindSigned && other.kind == KindSigned:
		return orderResult(cmpInt64(v.i, other.i), op)
	case v.kind == KindUnsigned && other.kind == KindSigned:
		return orderResult(compareUnsignedSigned(v.u, other.i), op)
	case v.kind == KindSigned && other.kind == KindUnsigned:
		return orderResult(-compareUnsignedSigned(other.u, v.i), op)
	default:
		return kleene.Failed
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64, op Operator, epsilonScale float64) kleene.Ternary {
	epsilon := float64Epsilon * epsilonScale
	switch op {
	case Eq:
		return kleene.FromBool(floatsEqual(a, b, epsilon))
	case Ne:
		return kleene.FromBool(!floatsEqual(a, b, epsilon))
	case Lt:
		return kleene.FromBool(a < b)
	case Le:
		return kleene.FromBool(a <= b)
	case Gt:
		return kleene.FromBool(a > b)
	case Ge:
		return kleene.FromBool(a >= b)
	default:
		return kleene.Failed
	}
}

func floatsEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= epsilon
}

// applyArith implements the shared integer arithmetic-assignment table
// (Copy/Add/Sub/Mul/Div/Mod/Or/Xor/And) generically over both of the
// engine's integer storage types, so the Unsigned and Signed branches of
// Assign share one implementation instead of duplicating it per width.
func applyArith[T constraints.Integer](op AssignOp, a, b T) (result T, ok bool) {
	switch op {
	case OpCopy:
		return b, true
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 {
			return a, false
		}
		return a / b, true
	case OpMod:
		if b == 0 {
			return a, false
		}
		return a % b, true
	case OpOr:
		return a | b, true
	case OpXor:
		return a ^ b, true
	case OpAnd:
		return a & b, true
	default:
		return a, false
	}
}

// Assign implements spec §4.1's assign(op, other) -> bool. It returns the
// would-be result and whether the operation is valid (kind-compatible,
// not a division/mod by zero, and within the declared bit width); on
// failure the returned Value is meaningless and the caller must leave the
// target unchanged, per §7.
func (v Value) Assign(op AssignOp, rhs Value) (Value, bool) {
	switch v.kind {
	case KindBool:
		if rhs.kind != KindBool {
			return v, false
		}
		switch op {
		case OpCopy:
			return NewBool(rhs.b), true
		case OpOr:
			return NewBool(v.b || rhs.b), true
		case OpXor:
			return NewBool(v.b != rhs.b), true
		case OpAnd:
			return NewBool(v.b && rhs.b), true
		default:
			return v, false
		}
	case KindUnsigned:
		if rhs.kind != KindUnsigned {
			return v, false
		}
		result, ok := applyArith(op, v.u, rhs.u)
		if !ok || !FitsUnsigned(v.width, result) {
			return v, false
		}
		nv, err := NewUnsigned(v.width, result)
		if err != nil {
			return v, false
		}
		return nv, true
	case KindSigned:
		if rhs.kind != KindSigned {
			return v, false
		}
		result, ok := applyArith(op, v.i, rhs.i)
		if !ok || !FitsSigned(v.width, result) {
			return v, false
		}
		nv, err := NewSigned(v.width, result)
		if err != nil {
			return v, false
		}
		return nv, true
	case KindFloat:
		rf, ok := rhs.toFloatLossless()
		if !ok {
			return v, false
		}
		switch op {
		case OpCopy:
			return NewFloat(rf), true
		case OpAdd:
			return NewFloat(v.f + rf), true
		case OpSub:
			return NewFloat(v.f - rf), true
		case OpMul:
			return NewFloat(v.f * rf), true
		case OpDiv:
			if rf == 0 {
				return v, false
			}
			return NewFloat(v.f / rf), true
		default:
			return v, false
		}
	default:
		return v, false
	}
}

package status

import "math"

// maskWidth returns a mask with the low width bits set.
func maskWidth(width uint8) uint64 {
	if width == 0 || width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Bits returns v's raw bit-block representation, as written into a
// chunk.Chunk: 1 bit for Bool, 64 bits (IEEE-754) for Float, the natural
// unsigned pattern for Unsigned, and the two's-complement pattern
// (masked to width bits) for Signed.
func (v Value) Bits() uint64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindFloat:
		return math.Float64bits(v.f)
	case KindUnsigned:
		return v.u
	case KindSigned:
		return uint64(v.i) & maskWidth(v.width)
	default:
		return 0
	}
}

// FromBits reconstructs a Value from its raw bit-block representation, the
// inverse of Bits. width is ignored for Bool/Float. The caller is
// responsible for width/bits having originated from a matching Bits()
// call (e.g. via the Reservoir); FromBits does not re-validate overflow.
func FromBits(kind Kind, width uint8, bits uint64) Value {
	switch kind {
	case KindBool:
		return NewBool(bits&1 != 0)
	case KindFloat:
		return NewFloat(math.Float64frombits(bits))
	case KindUnsigned:
		return Value{kind: KindUnsigned, width: width, u: bits & maskWidth(width)}
	case KindSigned:
		mask := maskWidth(width)
		raw := bits & mask
		signBit := uint64(1)
		if width > 0 {
			signBit = uint64(1) << (width - 1)
		}
		ext := raw
		if raw&signBit != 0 {
			ext = raw | ^mask
		}
		return Value{kind: KindSigned, width: width, i: int64(ext)}
	default:
		return Empty()
	}
}

// BlockWidthFor returns the number of bits FromBits/Bits expect to be
// allocated for a value of the given kind and width: 1 for Bool, 64 for
// Float, and width itself for Unsigned/Signed.
func BlockWidthFor(kind Kind, width uint8) uint8 {
	switch kind {
	case KindBool:
		return 1
	case KindFloat:
		return 64
	default:
		return width
	}
}

// Package wire implements the token-level primitives of the external
// interface (spec §6): parsing the `KIND`/`VALUE` columns a status-table
// row would supply, comparison/assignment operator tokens, delay
// tokens, and single-evaluation predicate tokens. It deliberately does
// not read tables, CSV, or JSON — that ingestion layer is an external
// collaborator per §1's Non-goals; wire only supplies the per-cell
// grammar such a builder would call into.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joeycumines/go-rulesengine/status"
)

// BitFormat re-exports status's one-byte public encoding at the wire
// boundary (spec §6).
type BitFormat = byte

// MakeBitFormat re-exports status.BitFormat.
func MakeBitFormat(kind status.Kind, width uint8) BitFormat {
	return status.BitFormat(kind, width)
}

// ParseBitFormat re-exports status.ParseBitFormat.
func ParseBitFormat(b BitFormat) (kind status.Kind, width uint8, ok bool) {
	return status.ParseBitFormat(b)
}

// ErrUnknownKind is returned by ParseValue when the KIND token doesn't
// match any recognized grammar.
var ErrUnknownKind = fmt.Errorf("wire: unrecognized KIND token")

// parseKind decodes a KIND token (`Bool`, `Float`, `Unsigned_<width>`,
// `Signed_<width>`) into a status.Kind and width.
func parseKind(kind string) (status.Kind, uint8, error) {
	switch kind {
	case "Bool":
		return status.KindBool, 0, nil
	case "Float":
		return status.KindFloat, 0, nil
	}
	if rest, ok := strings.CutPrefix(kind, "Unsigned_"); ok {
		width, err := strconv.ParseUint(rest, 10, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("wire: invalid Unsigned width %q: %w", rest, err)
		}
		return status.KindUnsigned, uint8(width), nil
	}
	if rest, ok := strings.CutPrefix(kind, "Signed_"); ok {
		width, err := strconv.ParseUint(rest, 10, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("wire: invalid Signed width %q: %w", rest, err)
		}
		return status.KindSigned, uint8(width), nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ParseValue parses a KIND/VALUE column pair from a status-table row
// (spec §6) into a status.Value: `true`/`false` for Bool, scientific
// notation for Float, and decimal/`0x`/`0b`/`0o` literals (optional
// leading sign) for Unsigned/Signed.
func ParseValue(kind, value string) (status.Value, error) {
	k, width, err := parseKind(kind)
	if err != nil {
		return status.Value{}, err
	}
	switch k {
	case status.KindBool:
		switch value {
		case "true":
			return status.NewBool(true), nil
		case "false":
			return status.NewBool(false), nil
		default:
			return status.Value{}, fmt.Errorf("wire: invalid Bool VALUE %q", value)
		}
	case status.KindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return status.Value{}, fmt.Errorf("wire: invalid Float VALUE %q: %w", value, err)
		}
		return status.NewFloat(f), nil
	case status.KindUnsigned:
		u, err := strconv.ParseUint(strings.TrimPrefix(value, "+"), 0, 64)
		if err != nil {
			return status.Value{}, fmt.Errorf("wire: invalid Unsigned VALUE %q: %w", value, err)
		}
		return status.NewUnsigned(width, u)
	case status.KindSigned:
		i, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return status.Value{}, fmt.Errorf("wire: invalid Signed VALUE %q: %w", value, err)
		}
		return status.NewSigned(width, i)
	default:
		return status.Value{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ErrUnknownOperator is returned by ParseOperator for an unrecognized
// comparison-operator token.
var ErrUnknownOperator = fmt.Errorf("wire: unrecognized comparison operator token")

// ParseOperator parses one of the comparison-operator tokens (`==`,
// `!=`, `<`, `<=`, `>`, `>=`) from an expression-table row (spec §6).
func ParseOperator(token string) (status.Operator, error) {
	switch token {
	case "==":
		return status.Eq, nil
	case "!=":
		return status.Ne, nil
	case "<":
		return status.Lt, nil
	case "<=":
		return status.Le, nil
	case ">":
		return status.Gt, nil
	case ">=":
		return status.Ge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, token)
	}
}

// ErrUnknownAssignOp is returned by ParseAssignOp for an unrecognized
// arithmetic-assignment operator token.
var ErrUnknownAssignOp = fmt.Errorf("wire: unrecognized assignment operator token")

// ParseAssignOp parses one of the arithmetic-assignment operator tokens
// (`:=`, `+=`, `-=`, `*=`, `/=`, `%=`, `|=`, `^=`, `&=`) from a
// handler-table row's ARGUMENT tuples (spec §6).
func ParseAssignOp(token string) (status.AssignOp, error) {
	switch token {
	case ":=":
		return status.OpCopy, nil
	case "+=":
		return status.OpAdd, nil
	case "-=":
		return status.OpSub, nil
	case "*=":
		return status.OpMul, nil
	case "/=":
		return status.OpDiv, nil
	case "%=":
		return status.OpMod, nil
	case "|=":
		return status.OpOr, nil
	case "^=":
		return status.OpXor, nil
	case "&=":
		return status.OpAnd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAssignOp, token)
	}
}

package wire

import (
	"fmt"

	"github.com/joeycumines/go-rulesengine/accumulator"
)

// ErrUnknownDelay is returned by ParseDelay for an unrecognized delay
// token.
var ErrUnknownDelay = fmt.Errorf("wire: unrecognized delay token")

// ParseDelay parses a handler-table row's ARGUMENT delay token
// (`Follow`/`Yield`/`Block`/`Nonblock`, spec §6).
func ParseDelay(token string) (accumulator.DelayPolicy, error) {
	switch token {
	case "Follow":
		return accumulator.Follow, nil
	case "Yield":
		return accumulator.Yield, nil
	case "Block":
		return accumulator.Block, nil
	case "Nonblock":
		return accumulator.Nonblock, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDelay, token)
	}
}

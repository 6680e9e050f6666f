package reservoir

import "errors"

// Sentinel errors returned by Reservoir operations, per spec §7's taxonomy.
var (
	ErrDuplicateKey = errors.New("reservoir: status key already registered")
	ErrUnknownKey   = errors.New("reservoir: unknown status key")
	ErrUnknownChunk = errors.New("reservoir: unknown chunk key")
)

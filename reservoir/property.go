package reservoir

import "github.com/joeycumines/go-rulesengine/ids"

// StatusProperty is the per-status metadata the Reservoir keeps alongside
// each status's bits: which chunk and bit offset it occupies, its
// BitFormat byte, and whether its value changed since the last
// ResetTransitions (spec §4.3).
type StatusProperty struct {
	chunkKey   ids.ChunkKey
	position   uint32
	bitFormat  byte
	transition bool
}

// ChunkKey returns the chunk p's bits are allocated in.
func (p *StatusProperty) ChunkKey() ids.ChunkKey { return p.chunkKey }

// Position returns p's bit offset within its chunk.
func (p *StatusProperty) Position() uint32 { return p.position }

// BitFormat returns p's one-byte kind/width encoding (status.BitFormat).
func (p *StatusProperty) BitFormat() byte { return p.bitFormat }

// Transition reports whether the status's value changed since the last
// ResetTransitions call.
func (p *StatusProperty) Transition() bool { return p.transition }

// Package chunk implements StatusChunk: the packed bit-array with a
// best-fit free-list allocator that backs every status value registered
// in a chunk (spec §4.2).
package chunk

import (
	"errors"
	"sort"

	"github.com/joeycumines/go-rulesengine/kleene"
)

// BlockWidth is the width, in bits, of one word in the chunk's bit-block
// vector. The word type is fixed to uint64 (spec §9's "sensible default"
// for the template's unsigned word parameter).
const BlockWidth = 64

// Errors returned by Chunk operations (spec §7).
var (
	ErrWidthExceedsBlock = errors.New("chunk: width exceeds block width")
	ErrOutOfRange        = errors.New("chunk: bit position out of range")
)

// freeRegion is an unallocated run of bits within the block vector.
type freeRegion struct {
	width    uint8
	position uint32
}

// Chunk is StatusChunk: a packed []uint64 bit-block vector plus a
// best-fit free-list of unallocated regions, sorted by (width, position).
//
// Every allocated region is fully contained in a single block; a request
// whose width exceeds BlockWidth is rejected rather than ever allowed to
// straddle a word boundary.
type Chunk struct {
	blocks []uint64
	free   []freeRegion
}

// New returns an empty Chunk with no allocated blocks.
func New() *Chunk {
	return &Chunk{}
}

// BlockCount returns the number of uint64 blocks currently owned by c.
func (c *Chunk) BlockCount() int {
	return len(c.blocks)
}

// insertFree inserts r into the sorted free list, keeping it sorted by
// (width, position) so Allocate's best-fit search can binary-search for
// the first region wide enough.
func (c *Chunk) insertFree(r freeRegion) {
	i := sort.Search(len(c.free), func(i int) bool {
		if c.free[i].width != r.width {
			return c.free[i].width > r.width
		}
		return c.free[i].position >= r.position
	})
	c.free = append(c.free, freeRegion{})
	copy(c.free[i+1:], c.free[i:])
	c.free[i] = r
}

// Allocate reserves width contiguous bits within a single block, using a
// best-fit search over the free list (lower bound on width, then
// smallest), growing the block vector by the minimum number of blocks
// needed when no free region fits.
func (c *Chunk) Allocate(width uint8) (position uint32, err error) {
	if width == 0 || width > BlockWidth {
		return 0, ErrWidthExceedsBlock
	}

	idx := sort.Search(len(c.free), func(i int) bool {
		return c.free[i].width >= width
	})
	if idx < len(c.free) {
		r := c.free[idx]
		c.free = append(c.free[:idx], c.free[idx+1:]...)
		if r.width > width {
			c.insertFree(freeRegion{width: r.width - width, position: r.position + uint32(width)})
		}
		return r.position, nil
	}

	// No free region fits: grow the block vector.
	startBlock := len(c.blocks)
	c.blocks = append(c.blocks, 0)
	position = uint32(startBlock) * BlockWidth
	if width < BlockWidth {
		c.insertFree(freeRegion{width: BlockWidth - width, position: position + uint32(width)})
	}
	return position, nil
}

// regionBounds validates that [position, position+width) lies within a
// single block, returning the block index and the in-block bit offset.
func regionBounds(position uint32, width uint8) (blockIndex int, offset uint8, ok bool) {
	if width == 0 || width > BlockWidth {
		return 0, 0, false
	}
	blockIndex = int(position / BlockWidth)
	offset = uint8(position % BlockWidth)
	if int(offset)+int(width) > BlockWidth {
		return 0, 0, false
	}
	return blockIndex, offset, true
}

func maskFor(width uint8) uint64 {
	if width >= BlockWidth {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Get extracts the width-bit unsigned field starting at position.
func (c *Chunk) Get(position uint32, width uint8) (word uint64, ok bool) {
	blockIndex, offset, valid := regionBounds(position, width)
	if !valid || blockIndex < 0 || blockIndex >= len(c.blocks) {
		return 0, false
	}
	return (c.blocks[blockIndex] >> offset) & maskFor(width), true
}

// Set writes word into the width-bit field starting at position, per
// spec §4.2: Failed if word has bits set outside width or the position is
// out of range, True if the stored bits changed, False otherwise.
func (c *Chunk) Set(position uint32, width uint8, word uint64) kleene.Ternary {
	blockIndex, offset, valid := regionBounds(position, width)
	if !valid || blockIndex < 0 || blockIndex >= len(c.blocks) {
		return kleene.Failed
	}
	mask := maskFor(width)
	if word&^mask != 0 {
		return kleene.Failed
	}
	shifted := (word & mask) << offset
	fieldMask := mask << offset
	old := c.blocks[blockIndex]
	newBlock := (old &^ fieldMask) | shifted
	if newBlock == old {
		return kleene.False
	}
	c.blocks[blockIndex] = newBlock
	return kleene.True
}

// ExportBits returns an opaque copy of c's bit-block vector, per spec
// §1's "opaque bit-chunk export" allowance. The caller must only feed the
// result back via ImportBits into a Chunk whose Reservoir/Evaluator
// metadata already matches; this is a raw bit copy with no semantic
// reinterpretation.
func (c *Chunk) ExportBits() []uint64 {
	out := make([]uint64, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// ImportBits overwrites c's bit-block vector with blocks, failing if the
// lengths differ (the free list and block count must already agree with
// the exporting chunk's allocation history).
func (c *Chunk) ImportBits(blocks []uint64) error {
	if len(blocks) != len(c.blocks) {
		return ErrOutOfRange
	}
	copy(c.blocks, blocks)
	return nil
}

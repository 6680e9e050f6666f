// Package reservoir implements Reservoir: the owner of every StatusChunk
// and the per-status metadata (StatusProperty) that addresses a status's
// bits within its chunk (spec §4.3).
package reservoir

import (
	"github.com/joeycumines/go-rulesengine/chunk"
	"github.com/joeycumines/go-rulesengine/ids"
	"github.com/joeycumines/go-rulesengine/kleene"
	"github.com/joeycumines/go-rulesengine/status"
)

// Reservoir owns the chunk map and the status-key -> StatusProperty map,
// and is the sole component with direct write access to status bits.
type Reservoir struct {
	chunks       map[ids.ChunkKey]*chunk.Chunk
	props        map[ids.StatusKey]*StatusProperty
	membership   map[ids.ChunkKey][]ids.StatusKey
	epsilonScale float64
}

// New returns an empty Reservoir with the default float comparison
// epsilon scale (status.DefaultEpsilonScale).
func New() *Reservoir {
	return &Reservoir{
		chunks:       make(map[ids.ChunkKey]*chunk.Chunk),
		props:        make(map[ids.StatusKey]*StatusProperty),
		membership:   make(map[ids.ChunkKey][]ids.StatusKey),
		epsilonScale: status.DefaultEpsilonScale,
	}
}

// SetEpsilonScale overrides the multiplier applied to float64's machine
// epsilon for Float comparisons (engine.WithFloatEpsilonScale wires this).
func (r *Reservoir) SetEpsilonScale(scale float64) {
	if scale > 0 {
		r.epsilonScale = scale
	}
}

// RegisterStatus allocates bits for a new status key within chunkKey
// (creating the chunk on first use) and writes its initial value. It
// fails with ErrDuplicateKey if key is already registered, or with a
// chunk allocation error if initial's width exceeds a single block.
func (r *Reservoir) RegisterStatus(chunkKey ids.ChunkKey, key ids.StatusKey, initial status.Value) error {
	if _, exists := r.props[key]; exists {
		return ErrDuplicateKey
	}
	c, ok := r.chunks[chunkKey]
	if !ok {
		c = chunk.New()
		r.chunks[chunkKey] = c
	}
	width := status.BlockWidthFor(initial.Kind(), initial.Width())
	position, err := c.Allocate(width)
	if err != nil {
		return err
	}
	c.Set(position, width, initial.Bits())
	r.props[key] = &StatusProperty{
		chunkKey:  chunkKey,
		position:  position,
		bitFormat: initial.BitFormat(),
	}
	r.membership[chunkKey] = append(r.membership[chunkKey], key)
	return nil
}

// FindStatus reads key's current value, reporting false if key is not
// registered or its chunk has been removed.
func (r *Reservoir) FindStatus(key ids.StatusKey) (status.Value, bool) {
	prop, ok := r.props[key]
	if !ok {
		return status.Empty(), false
	}
	c, ok := r.chunks[prop.chunkKey]
	if !ok {
		return status.Empty(), false
	}
	kind, width, ok := status.ParseBitFormat(prop.bitFormat)
	if !ok {
		return status.Empty(), false
	}
	bits, ok := c.Get(prop.position, status.BlockWidthFor(kind, width))
	if !ok {
		return status.Empty(), false
	}
	return status.FromBits(kind, width, bits), true
}

// FindProperty returns key's metadata, or false if it is not registered.
func (r *Reservoir) FindProperty(key ids.StatusKey) (*StatusProperty, bool) {
	prop, ok := r.props[key]
	return prop, ok
}

// FindTransition reports whether key's value changed since the last
// ResetTransitions call, Failed if key is not registered.
func (r *Reservoir) FindTransition(key ids.StatusKey) kleene.Ternary {
	prop, ok := r.props[key]
	if !ok {
		return kleene.Failed
	}
	return kleene.FromBool(prop.transition)
}

// resolveRHS resolves a literal-or-reference RHS against the current
// reservoir state.
func (r *Reservoir) resolveRHS(rhs RHS) (status.Value, bool) {
	if rhs.isRef {
		return r.FindStatus(rhs.ref)
	}
	return rhs.literal, true
}

// Assign directly overwrites key's value (equivalent to an OpCopy
// AssignStatus), returning false if key is unregistered or the new value's
// kind doesn't match the stored kind.
func (r *Reservoir) Assign(key ids.StatusKey, value status.Value) bool {
	return r.AssignStatus(StatusAssignment{Key: key, Op: status.OpCopy, RHS: Literal(value)})
}

// AssignStatus applies a (possibly arithmetic) assignment in place. Per
// spec §7, a failing assignment (kind mismatch, width overflow, divide by
// zero, unknown key) leaves the target's stored bits entirely unchanged
// and returns false; the reservoir never partially applies a write.
func (r *Reservoir) AssignStatus(a StatusAssignment) bool {
	prop, ok := r.props[a.Key]
	if !ok {
		return false
	}
	current, ok := r.FindStatus(a.Key)
	if !ok {
		return false
	}
	rhsValue, ok := r.resolveRHS(a.RHS)
	if !ok {
		return false
	}
	result, ok := current.Assign(a.Op, rhsValue)
	if !ok {
		return false
	}
	c, ok := r.chunks[prop.chunkKey]
	if !ok {
		return false
	}
	kind, width, ok := status.ParseBitFormat(prop.bitFormat)
	if !ok {
		return false
	}
	changed := c.Set(prop.position, status.BlockWidthFor(kind, width), result.Bits())
	if changed == kleene.Failed {
		return false
	}
	if changed == kleene.True {
		prop.transition = true
	}
	return true
}

// CompareStatus evaluates a read-only comparison, Failed if either side
// fails to resolve or the kinds are incomparable per status.Value.Compare.
func (r *Reservoir) CompareStatus(c StatusComparison) kleene.Ternary {
	left, ok := r.FindStatus(c.Left)
	if !ok {
		return kleene.Failed
	}
	right, ok := r.resolveRHS(c.RHS)
	if !ok {
		return kleene.Failed
	}
	return left.Compare(c.Operator, right, r.epsilonScale)
}

// ResetTransitions clears every status's transition flag, normally called
// once per tick after dispatch has observed them (spec §4.6 step 5).
func (r *Reservoir) ResetTransitions() {
	for _, prop := range r.props {
		prop.transition = false
	}
}

// RemoveChunk deletes a chunk and every status registered within it,
// reporting false if chunkKey is unknown. Callers that also track
// expressions/monitors referencing these statuses (the engine driver) are
// responsible for cascading the removal further, per SPEC_FULL.md §5.5.
func (r *Reservoir) RemoveChunk(chunkKey ids.ChunkKey) bool {
	if _, ok := r.chunks[chunkKey]; !ok {
		return false
	}
	for _, key := range r.membership[chunkKey] {
		delete(r.props, key)
	}
	delete(r.membership, chunkKey)
	delete(r.chunks, chunkKey)
	return true
}

// StatusKeys returns the status keys registered within chunkKey, for
// callers that need to cascade a chunk removal into other components
// (e.g. the engine driver pruning expressions/monitors).
func (r *Reservoir) StatusKeys(chunkKey ids.ChunkKey) []ids.StatusKey {
	keys := r.membership[chunkKey]
	out := make([]ids.StatusKey, len(keys))
	copy(out, keys)
	return out
}

// FindChunk returns the raw chunk backing chunkKey, for export/import use
// cases (SPEC_FULL.md §6.2).
func (r *Reservoir) FindChunk(chunkKey ids.ChunkKey) (*chunk.Chunk, bool) {
	c, ok := r.chunks[chunkKey]
	return c, ok
}

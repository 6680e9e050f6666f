// Package accumulator implements Accumulator: the deferred write queue
// applied at tick boundaries, ahead of dispatch (spec §4.7).
//
// Thread Safety: like the Reservoir and Dispatcher, Accumulator is not
// safe for concurrent use — the engine is driven from a single goroutine
// by contract (spec §5).
package accumulator

import "github.com/joeycumines/go-rulesengine/reservoir"

// DelayPolicy controls when a queued StatusAssignment is allowed to take
// effect, relative to the other entries pending in the same Accumulator
// (spec §4.7).
type DelayPolicy uint8

const (
	// Follow applies in plain FIFO order: as soon as it's reached and
	// nothing ahead of it is blocking.
	Follow DelayPolicy = iota
	// Yield applies at most once per Flush call; a second Yield entry
	// reached in the same flush is left queued for the next tick, giving
	// other pending writes a turn first.
	Yield
	// Block applies immediately, but then defers every later entry in
	// the same flush (other than Nonblock entries) to the next tick —
	// a one-shot barrier.
	Block
	// Nonblock applies immediately regardless of any Block barrier ahead
	// of it in the same flush.
	Nonblock
)

func (d DelayPolicy) String() string {
	switch d {
	case Follow:
		return "Follow"
	case Yield:
		return "Yield"
	case Block:
		return "Block"
	case Nonblock:
		return "Nonblock"
	default:
		return "DelayPolicy(?)"
	}
}

// Entry is one queued write: the assignment to apply and its delay
// policy.
type Entry struct {
	Assignment reservoir.StatusAssignment
	Delay      DelayPolicy
}

// Accumulator is a FIFO queue of pending StatusAssignments, flushed into
// a Reservoir at each tick boundary ahead of dispatch (spec §2's
// control flow).
type Accumulator struct {
	pending []Entry
}

// New returns an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Enqueue appends e to the pending queue.
func (a *Accumulator) Enqueue(e Entry) {
	a.pending = append(a.pending, e)
}

// Len returns the number of entries still pending.
func (a *Accumulator) Len() int {
	return len(a.pending)
}

// Flush applies as many pending entries as each one's DelayPolicy
// permits, in FIFO order, against r. Entries that are deferred (a second
// Yield entry in the same flush, or anything other than Nonblock behind
// a Block entry) are requeued for the next Flush call. It returns the
// number of entries applied.
//
// An assignment entry is applied at most once: whether
// reservoir.AssignStatus succeeds or fails (kind mismatch, overflow,
// divide by zero), the entry is consumed — a failing assignment will not
// retroactively start succeeding on a later tick, so there is nothing to
// gain by retrying it.
func (a *Accumulator) Flush(r *reservoir.Reservoir) (applied int) {
	remaining := a.pending[:0:0]
	var yielded, blocked bool

	for _, e := range a.pending {
		if blocked && e.Delay != Nonblock {
			remaining = append(remaining, e)
			continue
		}
		if e.Delay == Yield {
			if yielded {
				remaining = append(remaining, e)
				continue
			}
			yielded = true
		}

		r.AssignStatus(e.Assignment)
		applied++

		if e.Delay == Block {
			blocked = true
		}
	}

	a.pending = remaining
	return applied
}

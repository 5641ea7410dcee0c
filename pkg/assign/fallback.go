package assign

import (
	"math/rand/v2"
)

// allocator hands out the slots the rule search never claimed, one at a
// time, without replacement. Slot 0 is reserved by the bitmap convention
// (index 0 means "no signal") and never enters the pool.
type allocator struct {
	free    []uint32 // unclaimed slots; order mutates as pops remove entries
	rng     *rand.Rand
	initial int // pool size when allocation began, for diagnostics
	popped  int
}

// newAllocator builds the free pool [1, tableSize) minus the claimed set.
// The pool is materialized in ascending slot order so that pop order is a
// pure function of the rng sequence.
func newAllocator(claimed map[uint32]struct{}, tableSize uint32, rng *rand.Rand) *allocator {
	free := make([]uint32, 0, int(tableSize)-1-len(claimed))
	for slot := uint32(1); slot < tableSize; slot++ {
		if _, taken := claimed[slot]; taken {
			continue
		}
		free = append(free, slot)
	}
	return &allocator{free: free, rng: rng, initial: len(free)}
}

// remaining returns the number of slots still available.
func (a *allocator) remaining() int { return len(a.free) }

// pop removes and returns one slot from the pool. The draw position comes
// from the seeded rng, so the full pop sequence is deterministic for a fixed
// seed and claimed set. Returns ok=false when the pool is empty; the caller
// turns that into a SlotExhaustionError with full counts.
func (a *allocator) pop() (uint32, bool) {
	n := len(a.free)
	if n == 0 {
		return 0, false
	}
	i := a.rng.IntN(n)
	slot := a.free[i]
	a.free[i] = a.free[n-1]
	a.free = a.free[:n-1]
	a.popped++
	return slot, true
}

package assign

import (
	"context"

	"github.com/covtools/edgemark/pkg/cfg"
	"github.com/covtools/edgemark/pkg/observability"
)

// edgeSlot evaluates the closed-form edge hash:
//
//	slot = ((cur >> localShift) XOR ((pred >> globalShift) + offset)) mod tableSize
//
// All arithmetic is fixed-width uint32 with wraparound; the mask reduces the
// result into the slot-index range regardless of internal overflow.
func edgeSlot(cur, pred, localShift, globalShift, offset, mask uint32) uint32 {
	return ((cur >> localShift) ^ ((pred >> globalShift) + offset)) & mask
}

// passResult carries everything one search pass produced. When the pass is
// accepted, its claimed set and unsolved list become the inputs to fallback
// allocation.
type passResult struct {
	globalShift uint32
	rules       map[string]Rule
	claimed     map[uint32]struct{}
	solved      []string
	unsolved    []string

	passes          int
	triplesTried    int
	budgetExhausted bool
}

// searcher owns all state for one rule search. It is built fresh per run;
// nothing survives across graphs.
type searcher struct {
	ctx       context.Context
	graph     *cfg.Graph
	keys      map[string]uint32
	multis    []string // eligible multi-predecessor block IDs, traversal order
	tableBits uint32
	mask      uint32
	tolerance float64

	budget  int // remaining triples; negative means unlimited
	triples int // total triples evaluated
}

// spend consumes one search triple from the budget. Returns false once the
// budget is gone; the caller must stop searching and let the remaining
// blocks fall through to fallback allocation.
func (s *searcher) spend() bool {
	if s.budget == 0 {
		return false
	}
	if s.budget > 0 {
		s.budget--
	}
	s.triples++
	return true
}

func (s *searcher) exhausted() bool { return s.budget == 0 }

// run tries global shifts in strictly increasing order. The first pass whose
// unsolved set is empty (or within tolerance) wins; if none qualifies, the
// last pass is kept best-effort. Work from a rejected pass is discarded
// wholesale - the claimed set is only meaningful within the pass that built
// it.
func (s *searcher) run() passResult {
	var last passResult
	for y := uint32(1); y <= s.tableBits; y++ {
		last = s.runPass(y)
		last.passes = int(y)
		observability.Assign().OnPassComplete(s.ctx, int(y), len(last.solved), len(last.unsolved))
		if s.acceptable(&last) || last.budgetExhausted {
			break
		}
	}
	last.triplesTried = s.triples
	return last
}

// acceptable reports whether the pass satisfies the stop condition.
func (s *searcher) acceptable(r *passResult) bool {
	if len(r.unsolved) == 0 {
		return true
	}
	if s.tolerance > 0 && float64(len(r.unsolved)) <= s.tolerance*float64(len(s.multis)) {
		return true
	}
	return false
}

// runPass attempts to solve every multi-predecessor block under one global
// shift. Blocks are processed in traversal order and never revisited: once a
// block claims its slots, later blocks must search around them.
func (s *searcher) runPass(globalShift uint32) passResult {
	r := passResult{
		globalShift: globalShift,
		rules:       make(map[string]Rule, len(s.multis)),
		claimed:     make(map[uint32]struct{}),
	}

	for i, id := range s.multis {
		if s.exhausted() {
			r.unsolved = append(r.unsolved, s.multis[i:]...)
			break
		}
		rule, slots, ok := s.solveBlock(id, globalShift, r.claimed)
		if !ok {
			r.unsolved = append(r.unsolved, id)
			continue
		}
		r.rules[id] = rule
		for _, h := range slots {
			r.claimed[h] = struct{}{}
		}
		r.solved = append(r.solved, id)
	}

	if s.exhausted() {
		r.budgetExhausted = true
	}
	return r
}

// solveBlock searches (localShift, offset) first-fit for a rule whose edge
// slots are pairwise distinct and disjoint from the pass's claimed set.
// Returns the winning rule and its slots, or ok=false if the TABLE_BITS^2
// candidate space (or the budget) is exhausted.
//
// First-fit favors speed over slot-space efficiency: the first candidate
// satisfying both conditions wins, even if a later one would pack tighter.
func (s *searcher) solveBlock(id string, globalShift uint32, claimed map[uint32]struct{}) (Rule, []uint32, bool) {
	cur := s.keys[id]
	preds := s.graph.Preds(id)
	slots := make([]uint32, 0, len(preds))
	seen := make(map[uint32]struct{}, len(preds))

	for x := uint32(1); x <= s.tableBits; x++ {
		for z := uint32(1); z <= s.tableBits; z++ {
			if !s.spend() {
				return Rule{}, nil, false
			}
			slots = slots[:0]
			clear(seen)
			ok := true
			for _, p := range preds {
				h := edgeSlot(cur, s.keys[p], x, globalShift, z, s.mask)
				if _, dup := seen[h]; dup {
					ok = false
					break
				}
				if _, taken := claimed[h]; taken {
					ok = false
					break
				}
				seen[h] = struct{}{}
				slots = append(slots, h)
			}
			if ok {
				return Rule{LocalShift: x, Offset: z}, slots, true
			}
		}
	}
	return Rule{}, nil, false
}

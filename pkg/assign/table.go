package assign

import (
	"fmt"

	"github.com/covtools/edgemark/pkg/cfg"
)

// Kind tags the three ways a block can be instrumented.
type Kind uint8

const (
	// KindSingle marks a block with one direct slot: its single incoming
	// edge (or the block itself, under EntrySingle) needs no hash rule.
	KindSingle Kind = iota + 1

	// KindSolved marks a multi-predecessor block whose edges are hashed by
	// the closed-form rule with the recorded parameters.
	KindSolved

	// KindUnsolved marks a multi-predecessor block the rule search could
	// not solve; each incoming edge has an explicit slot in EdgeSlots.
	KindUnsolved
)

// String returns the kind name used in serialized tables.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSolved:
		return "solved"
	case KindUnsolved:
		return "unsolved"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Rule holds the per-block parameters of the edge hash. The graph-wide
// global shift lives on the Table; together they define
//
//	slot = ((cur >> LocalShift) XOR ((pred >> globalShift) + Offset)) mod tableSize
type Rule struct {
	LocalShift uint32 `json:"local_shift" bson:"local_shift"`
	Offset     uint32 `json:"offset" bson:"offset"`
}

// EdgeKey identifies one control-flow edge by the keys of its endpoints.
type EdgeKey struct {
	Cur  uint32 // key of the block being entered
	Pred uint32 // key of the predecessor block
}

// Entry is the per-block instrumentation decision. Exactly one of the
// variant fields is meaningful, selected by Kind. Entries are write-once:
// whichever component resolves a block first owns its entry.
type Entry struct {
	Kind      Kind
	Slot      uint32             // KindSingle
	Rule      Rule               // KindSolved
	EdgeSlots map[EdgeKey]uint32 // KindUnsolved
}

// Stats summarizes one assignment run for diagnostics and logging.
type Stats struct {
	Blocks        int `json:"blocks" bson:"blocks"`
	Entries       int `json:"entries" bson:"entries"`
	Singles       int `json:"singles" bson:"singles"`
	Multis        int `json:"multis" bson:"multis"`
	Solved        int `json:"solved" bson:"solved"`
	Unsolved      int `json:"unsolved" bson:"unsolved"`
	Skipped       int `json:"skipped" bson:"skipped"` // excluded by instrumentation ratio
	Passes        int `json:"passes" bson:"passes"`
	TriplesTried  int `json:"triples_tried" bson:"triples_tried"`
	RuleSlots     int `json:"rule_slots" bson:"rule_slots"`         // slots claimed by solved rules
	FallbackSlots int `json:"fallback_slots" bson:"fallback_slots"` // slots popped from the free pool
}

// Table is the published result of an assignment run: per block, either rule
// parameters or explicit slots, plus the graph-wide global shift. It is the
// entire surface the external code-injection collaborator reads.
type Table struct {
	TableBits   uint32
	GlobalShift uint32

	// Keys maps block IDs to their bitmap-space keys. Every block of the
	// input graph has a key, even blocks without an Entry.
	Keys map[string]uint32

	// Entries maps block IDs to their instrumentation decision. Blocks
	// excluded by policy or ratio have no entry.
	Entries map[string]Entry

	Stats Stats
}

// TableSize returns the bitmap capacity, 2^TableBits.
func (t *Table) TableSize() uint32 { return 1 << t.TableBits }

// EdgeSlot evaluates the slot for the edge pred->block under this table.
// For KindSingle the predecessor is ignored. Returns ok=false if the block
// has no entry or (for KindUnsolved) the edge is not in its slot map.
//
// This mirrors exactly the computation the injected code performs at
// runtime, so tests can use it as the ground truth for collision checks.
func (t *Table) EdgeSlot(blockID string, predKey uint32) (uint32, bool) {
	e, ok := t.Entries[blockID]
	if !ok {
		return 0, false
	}
	switch e.Kind {
	case KindSingle:
		return e.Slot, true
	case KindSolved:
		cur := t.Keys[blockID]
		return edgeSlot(cur, predKey, e.Rule.LocalShift, t.GlobalShift, e.Rule.Offset, t.TableSize()-1), true
	case KindUnsolved:
		slot, ok := e.EdgeSlots[EdgeKey{Cur: t.Keys[blockID], Pred: predKey}]
		return slot, ok
	default:
		return 0, false
	}
}

// Verify re-checks the table's global invariants against the graph it was
// built from:
//
//   - every emitted slot is in [0, tableSize)
//   - fallback-assigned slots (Single and Unsolved) are nonzero and never
//     repeat anywhere in the table
//   - each Solved block's rule produces pairwise-distinct slots for its
//     predecessors, disjoint from every other Solved block's slots and from
//     all fallback slots
//
// The production path never runs this; it backs the verify command and the
// test suite. Returns nil if the table is sound.
func (t *Table) Verify(g *cfg.Graph) error {
	size := t.TableSize()
	owners := make(map[uint32]string, len(t.Entries))

	claim := func(slot uint32, id string, fallback bool) error {
		if slot >= size {
			return fmt.Errorf("block %s: slot %d out of range [0, %d)", id, slot, size)
		}
		if fallback && slot == 0 {
			return fmt.Errorf("block %s: fallback slot 0 is reserved", id)
		}
		if prev, taken := owners[slot]; taken {
			return fmt.Errorf("slot %d assigned to both %s and %s", slot, prev, id)
		}
		owners[slot] = id
		return nil
	}

	for _, id := range g.BlockIDs() {
		e, ok := t.Entries[id]
		if !ok {
			continue
		}
		switch e.Kind {
		case KindSingle:
			if err := claim(e.Slot, id, true); err != nil {
				return err
			}
		case KindUnsolved:
			distinct := make(map[uint32]struct{}, g.InDegree(id))
			for _, p := range g.Preds(id) {
				distinct[t.Keys[p]] = struct{}{}
			}
			if want, got := len(distinct), len(e.EdgeSlots); want != got {
				return fmt.Errorf("block %s: %d distinct predecessor keys but %d edge slots", id, want, got)
			}
			for _, slot := range e.EdgeSlots {
				if err := claim(slot, id, true); err != nil {
					return err
				}
			}
		case KindSolved:
			cur := t.Keys[id]
			for _, p := range g.Preds(id) {
				slot := edgeSlot(cur, t.Keys[p], e.Rule.LocalShift, t.GlobalShift, e.Rule.Offset, size-1)
				if err := claim(slot, id, false); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("block %s: unknown entry kind %d", id, e.Kind)
		}
	}
	return nil
}

package emit

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/covtools/edgemark/pkg/assign"
)

// =============================================================================
// Table - Assignment Table Serialization
// =============================================================================

// Table is the canonical serialization format for assignment tables. It is
// the hand-off artifact for the code-injection side: everything needed to
// instrument a binary is in this one document.
//
// Blocks are sorted by ID, so output for a given table is byte-stable.
type Table struct {
	TableBits   uint32       `json:"table_bits" bson:"table_bits"`
	GlobalShift uint32       `json:"global_shift" bson:"global_shift"`
	Blocks      []BlockEntry `json:"blocks" bson:"blocks"`
	Stats       assign.Stats `json:"stats" bson:"stats"`
}

// BlockEntry is one block's row of the table. Every keyed block appears;
// Kind is empty for blocks that carry a key but no instrumentation (excluded
// by policy or ratio).
type BlockEntry struct {
	ID   string `json:"id" bson:"id"`
	Key  uint32 `json:"key" bson:"key"`
	Kind string `json:"kind,omitempty" bson:"kind,omitempty"`

	// Slot is set for kind "single".
	Slot uint32 `json:"slot,omitempty" bson:"slot,omitempty"`

	// Rule is set for kind "solved".
	Rule *assign.Rule `json:"rule,omitempty" bson:"rule,omitempty"`

	// Edges is set for kind "unsolved", sorted by predecessor key.
	Edges []EdgeSlot `json:"edges,omitempty" bson:"edges,omitempty"`
}

// EdgeSlot is one explicit edge-to-slot binding of an unsolved block.
type EdgeSlot struct {
	Pred uint32 `json:"pred" bson:"pred"`
	Slot uint32 `json:"slot" bson:"slot"`
}

// =============================================================================
// assign.Table ↔ Table Conversion
// =============================================================================

// FromTable converts an assignment table to its serialization format.
// Blocks are sorted by ID for deterministic output.
func FromTable(t *assign.Table) Table {
	ids := make([]string, 0, len(t.Keys))
	for id := range t.Keys {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := Table{
		TableBits:   t.TableBits,
		GlobalShift: t.GlobalShift,
		Blocks:      make([]BlockEntry, 0, len(ids)),
		Stats:       t.Stats,
	}

	for _, id := range ids {
		be := BlockEntry{ID: id, Key: t.Keys[id]}
		if e, ok := t.Entries[id]; ok {
			be.Kind = e.Kind.String()
			switch e.Kind {
			case assign.KindSingle:
				be.Slot = e.Slot
			case assign.KindSolved:
				rule := e.Rule
				be.Rule = &rule
			case assign.KindUnsolved:
				be.Edges = make([]EdgeSlot, 0, len(e.EdgeSlots))
				for k, slot := range e.EdgeSlots {
					be.Edges = append(be.Edges, EdgeSlot{Pred: k.Pred, Slot: slot})
				}
				slices.SortFunc(be.Edges, func(a, b EdgeSlot) int {
					return cmp.Compare(a.Pred, b.Pred)
				})
			}
		}
		out.Blocks = append(out.Blocks, be)
	}
	return out
}

// ToTable converts a serialized Table back to an assignment table.
// Returns an error for unknown kinds or malformed entries.
func ToTable(tj Table) (*assign.Table, error) {
	t := &assign.Table{
		TableBits:   tj.TableBits,
		GlobalShift: tj.GlobalShift,
		Keys:        make(map[string]uint32, len(tj.Blocks)),
		Entries:     make(map[string]assign.Entry, len(tj.Blocks)),
		Stats:       tj.Stats,
	}

	for _, be := range tj.Blocks {
		if be.ID == "" {
			return nil, fmt.Errorf("block entry with empty ID")
		}
		if _, dup := t.Keys[be.ID]; dup {
			return nil, fmt.Errorf("duplicate block entry %s", be.ID)
		}
		t.Keys[be.ID] = be.Key

		switch be.Kind {
		case "":
			// Keyed but uninstrumented.
		case assign.KindSingle.String():
			t.Entries[be.ID] = assign.Entry{Kind: assign.KindSingle, Slot: be.Slot}
		case assign.KindSolved.String():
			if be.Rule == nil {
				return nil, fmt.Errorf("block %s: solved entry without rule", be.ID)
			}
			t.Entries[be.ID] = assign.Entry{Kind: assign.KindSolved, Rule: *be.Rule}
		case assign.KindUnsolved.String():
			slots := make(map[assign.EdgeKey]uint32, len(be.Edges))
			for _, es := range be.Edges {
				slots[assign.EdgeKey{Cur: be.Key, Pred: es.Pred}] = es.Slot
			}
			t.Entries[be.ID] = assign.Entry{Kind: assign.KindUnsolved, EdgeSlots: slots}
		default:
			return nil, fmt.Errorf("block %s: unknown kind %q", be.ID, be.Kind)
		}
	}
	return t, nil
}

// =============================================================================
// Table Serialization API
// =============================================================================

// MarshalTable converts an assignment table to JSON bytes.
func MarshalTable(t *assign.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTableTo(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTable writes an assignment table as JSON to an io.Writer.
func WriteTable(t *assign.Table, w io.Writer) error {
	return writeTableTo(t, w)
}

// WriteTableFile writes an assignment table to a JSON file.
// The file is created with 0644 permissions.
func WriteTableFile(t *assign.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTableTo(t, f)
}

// ReadTable decodes a JSON assignment table from an io.Reader.
func ReadTable(r io.Reader) (*assign.Table, error) {
	var data Table
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToTable(data)
}

// ReadTableFile reads a JSON file and returns the decoded assignment table.
func ReadTableFile(path string) (*assign.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

func writeTableTo(t *assign.Table, w io.Writer) error {
	out := FromTable(t)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

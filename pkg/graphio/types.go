package graphio

import (
	"encoding/json"
	"fmt"

	"github.com/covtools/edgemark/pkg/cfg"
	apperrors "github.com/covtools/edgemark/pkg/errors"
)

// =============================================================================
// Graph - Control-Flow Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for control-flow graphs.
// Used for API requests, storage, caching, and cross-tool compatibility.
//
// Block order is significant: the assigner keys and traverses blocks in the
// order they appear, so serialization preserves it. A re-imported graph
// assigns identically to the original.
type Graph struct {
	Blocks []Block `json:"blocks" bson:"blocks"`
	Edges  []Edge  `json:"edges" bson:"edges"`
	Meta   Meta    `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Meta carries graph-level provenance from the frontend that extracted the
// CFG (module name, compiler, source hash).
type Meta map[string]any

// =============================================================================
// Block
// =============================================================================

// Block is one basic block on the wire. Only the ID is required; Label and
// Meta carry optional provenance for rendering and diagnostics.
type Block struct {
	ID    string         `json:"id" bson:"id"`
	Label string         `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	Meta  map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (b *Block) DisplayLabel() string {
	if b.Label != "" {
		return b.Label
	}
	return b.ID
}

// =============================================================================
// Edge - Directed Control-Flow Transfer
// =============================================================================

// Edge represents a directed control-flow edge.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// CFG ↔ Graph Conversion
// =============================================================================

// metaLabel stores the display label for round-trip fidelity.
const metaLabel = "_label"

// FromCFG converts a control-flow graph to its serialization format.
// Blocks appear in insertion order; output for a given graph is byte-stable.
func FromCFG(g *cfg.Graph) Graph {
	blocks := g.Blocks()
	out := Graph{
		Blocks: make([]Block, len(blocks)),
		Edges:  make([]Edge, g.EdgeCount()),
		Meta:   cleanMeta(g.Meta()),
	}

	for i, b := range blocks {
		out.Blocks[i] = blockFromCFG(b)
	}
	for i, e := range g.Edges() {
		out.Edges[i] = Edge{From: e.From, To: e.To}
	}
	return out
}

// ToCFG converts a serialized Graph to a control-flow graph.
// Returns an error for empty or duplicate block IDs and dangling edges.
// Label is stored in metadata for round-trip fidelity when non-empty.
func ToCFG(gj Graph) (*cfg.Graph, error) {
	g := cfg.New(cfg.Metadata(copyMeta(gj.Meta)))

	for _, bj := range gj.Blocks {
		if err := apperrors.ValidateBlockID(bj.ID); err != nil {
			return nil, err
		}
		b := cfg.Block{ID: bj.ID, Meta: copyMeta(bj.Meta)}
		if b.Meta == nil {
			b.Meta = cfg.Metadata{}
		}
		// Store label in metadata for round-trip fidelity
		if bj.Label != "" {
			b.Meta[metaLabel] = bj.Label
		}
		if err := g.AddBlock(b); err != nil {
			return nil, fmt.Errorf("add block %s: %w", bj.ID, err)
		}
	}

	for _, ej := range gj.Edges {
		if err := g.AddEdge(cfg.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", ej.From, ej.To, err)
		}
	}
	return g, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// blockFromCFG converts a cfg.Block to a serialization Block.
// Label is preserved from metadata if previously stored.
func blockFromCFG(b *cfg.Block) Block {
	block := Block{
		ID:   b.ID,
		Meta: cleanMeta(map[string]any(b.Meta)),
	}
	if label, ok := b.Meta[metaLabel].(string); ok {
		block.Label = label
	}
	return block
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// cleanMeta returns a copy of metadata without internal keys (e.g., _label).
// Returns nil if the result would be empty.
func cleanMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	hasPublicKeys := false
	for k := range m {
		if k != metaLabel {
			hasPublicKeys = true
			break
		}
	}
	if !hasPublicKeys {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		if k != metaLabel {
			result[k] = v
		}
	}
	return result
}

package cfg

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidBlockID is returned by [Graph.AddBlock] when the block ID is
	// empty. All blocks must have non-empty identifiers.
	ErrInvalidBlockID = errors.New("block ID must not be empty")

	// ErrDuplicateBlockID is returned by [Graph.AddBlock] when a block with
	// the same ID already exists. Block IDs must be unique per graph.
	ErrDuplicateBlockID = errors.New("duplicate block ID")

	// ErrUnknownSourceBlock is returned by [Graph.AddEdge] when the From
	// block does not exist in the graph.
	ErrUnknownSourceBlock = errors.New("unknown source block")

	// ErrUnknownTargetBlock is returned by [Graph.AddEdge] when the To
	// block does not exist in the graph.
	ErrUnknownTargetBlock = errors.New("unknown target block")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a block that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Metadata stores arbitrary key-value pairs attached to blocks or the graph.
// It is commonly used to carry provenance from the frontend that extracted
// the control-flow graph (function name, source line, module). Metadata maps
// are never nil - they are automatically initialized when needed.
type Metadata map[string]any

// Block represents one basic block of a control-flow graph.
//
// The zero value is not usable - ID must be set before adding to a Graph.
// Blocks are identity objects: topology (predecessors, successors) lives on
// the Graph, and slot-assignment results are keyed by ID, never written back.
type Block struct {
	ID   string   // Unique identifier assigned by the CFG frontend
	Meta Metadata // Arbitrary key-value metadata (never nil after AddBlock)
}

// Edge represents a directed control-flow transfer between two blocks.
// From is the predecessor, To the successor: execution flows From -> To.
type Edge struct {
	From string // Source block ID
	To   string // Target block ID
}

// Graph is a control-flow graph optimized for predecessor-driven traversal.
// Block order is insertion order and is stable: every traversal the assigner
// performs iterates blocks in the order the frontend added them, which makes
// slot assignment reproducible for a fixed input.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	blocks map[string]*Block
	order  []string // block IDs in insertion order
	edges  []Edge
	preds  map[string][]string // blockID -> predecessor IDs, edge insertion order
	succs  map[string][]string // blockID -> successor IDs
	meta   Metadata
}

// New creates an empty Graph with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		blocks: make(map[string]*Block),
		preds:  make(map[string][]string),
		succs:  make(map[string][]string),
		meta:   meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Meta() Metadata { return g.meta }

// AddBlock adds a block to the graph, preserving insertion order.
// Returns ErrInvalidBlockID if the block ID is empty, or ErrDuplicateBlockID
// if a block with the same ID already exists. The block's Meta field is
// automatically initialized to an empty map if nil.
func (g *Graph) AddBlock(b Block) error {
	if b.ID == "" {
		return ErrInvalidBlockID
	}
	if _, exists := g.blocks[b.ID]; exists {
		return ErrDuplicateBlockID
	}
	if b.Meta == nil {
		b.Meta = Metadata{}
	}
	block := &b
	g.blocks[block.ID] = block
	g.order = append(g.order, block.ID)
	return nil
}

// AddEdge adds a directed control-flow edge between two existing blocks.
// Returns ErrUnknownSourceBlock if the From block doesn't exist, or
// ErrUnknownTargetBlock if the To block doesn't exist.
//
// Parallel edges between the same pair are collapsed: a CFG edge either
// exists or it doesn't, and the slot assigner must see each live edge
// exactly once.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.blocks[e.From]; !ok {
		return ErrUnknownSourceBlock
	}
	if _, ok := g.blocks[e.To]; !ok {
		return ErrUnknownTargetBlock
	}
	if slices.Contains(g.preds[e.To], e.From) {
		return nil
	}
	g.edges = append(g.edges, e)
	g.succs[e.From] = append(g.succs[e.From], e.To)
	g.preds[e.To] = append(g.preds[e.To], e.From)
	return nil
}

// Block returns the block with the given ID and true, or nil and false if
// not found.
func (g *Graph) Block(id string) (*Block, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// Blocks returns all blocks in insertion order.
// The returned slice contains pointers to the actual block structs.
func (g *Graph) Blocks() []*Block {
	blocks := make([]*Block, len(g.order))
	for i, id := range g.order {
		blocks[i] = g.blocks[id]
	}
	return blocks
}

// BlockIDs returns all block IDs in insertion order.
func (g *Graph) BlockIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in the graph.
// The order matches insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// BlockCount returns the number of blocks in the graph.
func (g *Graph) BlockCount() int { return len(g.blocks) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Preds returns the IDs of blocks with an edge into this block, in edge
// insertion order. Returns nil if the block has no predecessors or doesn't
// exist. The returned slice should not be modified - use it as a read-only
// view.
func (g *Graph) Preds(id string) []string { return g.preds[id] }

// Succs returns the IDs of blocks this block has edges to, in edge insertion
// order. Returns nil if the block has no successors or doesn't exist.
func (g *Graph) Succs(id string) []string { return g.succs[id] }

// InDegree returns the number of incoming edges to the block.
// Returns 0 if the block doesn't exist.
func (g *Graph) InDegree(id string) int { return len(g.preds[id]) }

// OutDegree returns the number of outgoing edges from the block.
// Returns 0 if the block doesn't exist.
func (g *Graph) OutDegree(id string) int { return len(g.succs[id]) }

// Entries returns blocks with no incoming edges (function entry points),
// in insertion order. Returns nil for an empty graph.
func (g *Graph) Entries() []*Block {
	var entries []*Block
	for _, id := range g.order {
		if len(g.preds[id]) == 0 {
			entries = append(entries, g.blocks[id])
		}
	}
	return entries
}

// SinglePreds returns blocks with exactly one incoming edge, in insertion
// order. Their edge identity is trivial - knowing the block identifies the
// edge - so they are assigned a direct slot rather than a hash rule.
func (g *Graph) SinglePreds() []*Block {
	var singles []*Block
	for _, id := range g.order {
		if len(g.preds[id]) == 1 {
			singles = append(singles, g.blocks[id])
		}
	}
	return singles
}

// MultiPreds returns blocks with two or more incoming edges, in insertion
// order. These are the blocks the rule search must solve.
func (g *Graph) MultiPreds() []*Block {
	var multis []*Block
	for _, id := range g.order {
		if len(g.preds[id]) > 1 {
			multis = append(multis, g.blocks[id])
		}
	}
	return multis
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that all edges connect existing blocks. Unlike a dependency
// DAG, a control-flow graph may legitimately contain cycles (loops), so no
// acyclicity check is performed.
//
// Returns ErrInvalidEdgeEndpoint if an edge references a missing block.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.blocks[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.blocks[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

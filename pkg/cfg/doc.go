// Package cfg provides the control-flow graph model consumed by the slot
// assigner.
//
// A [Graph] holds basic blocks and the directed edges between them, exactly
// as extracted by a compiler frontend. The package deliberately knows nothing
// about coverage bitmaps or hash rules: it only answers the structural
// questions the assigner asks - which blocks exist, in what order, and what
// each block's predecessors are.
//
// # Determinism
//
// Block and predecessor order is insertion order and never reshuffled.
// Every downstream pass iterates in that order, so identical inputs produce
// identical assignment tables.
//
// # Classification
//
// The assigner distinguishes three kinds of block by in-degree:
//
//   - entry blocks (no predecessors): [Graph.Entries]
//   - single-predecessor blocks: [Graph.SinglePreds]
//   - multi-predecessor blocks: [Graph.MultiPreds]
//
// # Example
//
//	g := cfg.New(nil)
//	g.AddBlock(cfg.Block{ID: "entry"})
//	g.AddBlock(cfg.Block{ID: "loop"})
//	g.AddBlock(cfg.Block{ID: "exit"})
//	g.AddEdge(cfg.Edge{From: "entry", To: "loop"})
//	g.AddEdge(cfg.Edge{From: "loop", To: "loop"})
//	g.AddEdge(cfg.Edge{From: "loop", To: "exit"})
//	// "loop" has two predecessors (entry and itself) and needs a hash rule.
package cfg

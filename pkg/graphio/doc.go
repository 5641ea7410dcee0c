// Package graphio provides serialization types for control-flow graphs.
//
// This package defines the canonical wire format for Edgemark's graph data,
// used for JSON files, API requests, caching, and cross-tool interoperability.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Graph]: Serialization type (this package)
//   - pkg/cfg.Graph: Internal graph representation
//
// Use [FromCFG]/[ToCFG] to convert between them.
//
// # Graph Serialization
//
// Graphs use a simple block-link JSON format:
//
//	{
//	  "blocks": [{"id": "entry"}, {"id": "loop.head"}],
//	  "edges": [{"from": "entry", "to": "loop.head"}]
//	}
//
// Common operations:
//
//	g, _ := graphio.ReadGraphFile("cfg.json")    // File → cfg.Graph
//	graphio.WriteGraphFile(g, "output.json")     // cfg.Graph → File
//	data, _ := graphio.MarshalGraph(g)           // cfg.Graph → []byte
//	parsed, _ := graphio.UnmarshalGraph(data)    // []byte → Graph
//
// # Block Order
//
// Block order on the wire is meaningful and preserved: the slot assigner
// keys and traverses blocks in exactly this order, so a graph written and
// re-read assigns identically to the original. Frontends should emit blocks
// in a stable order (e.g. address or discovery order).
//
// # Block Metadata
//
// The meta object supports arbitrary key-value data. Recognized keys:
//
//	function     Enclosing function name
//	file         Source file
//	line         Source line of the block head
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graphio

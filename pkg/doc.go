// Package pkg provides the core libraries for Edgemark coverage slot assignment.
//
// # Overview
//
// Edgemark assigns collision-free coverage bitmap slots to the edges of a
// control-flow graph, so that fuzzing-style edge coverage never loses signal
// to hash collisions. The pkg directory is organized into five main areas:
//
//  1. [cfg] - Control-flow graph structure (blocks, edges, predecessors)
//  2. [assign] - The assignment algorithm (keys, rule search, fallback pool)
//  3. [emit] / [graphio] - Serialization of tables and graphs
//  4. [cache] / [store] - Infrastructure (result caching, run persistence)
//  5. [pipeline] - Orchestration (load → assign → emit)
//
// # Architecture
//
// The typical data flow through Edgemark:
//
//	Control-Flow Graph (JSON)
//	         ↓
//	    [graphio] package (decode + validate)
//	         ↓
//	    [assign] package (keys, rule search, fallback slots)
//	         ↓
//	    [emit] package (JSON table, DOT, SVG)
//	         ↓
//	    instrumentation-ready table
//
// Multi-predecessor blocks get a per-block hash rule when the search finds
// one that lands every incoming edge on a distinct free slot; blocks the
// search cannot solve fall back to explicit per-edge slots from the free
// pool. Single-predecessor blocks always take a direct slot.
//
// # Infrastructure
//
// Results are cached by content hash: the table cache key covers the graph
// and the full assignment configuration, the render cache key covers the
// serialized table and render options. The [cache] package provides file,
// Redis, and null backends behind one interface. The [store] package
// persists finished runs (MongoDB or in-memory) for the API server.
//
// # Quick Start
//
// Compute an assignment and serialize it:
//
//	import (
//	    "context"
//	    "github.com/covtools/edgemark/pkg/assign"
//	    "github.com/covtools/edgemark/pkg/emit"
//	    "github.com/covtools/edgemark/pkg/graphio"
//	)
//
//	g, err := graphio.ReadGraphFile("cfg.json")
//	if err != nil { ... }
//
//	a, err := assign.New(assign.Config{}, nil)
//	if err != nil { ... }
//
//	table, err := a.Run(context.Background(), g)
//	if err != nil { ... }
//
//	err = emit.WriteTableFile(table, "cfg.table.json")
package pkg

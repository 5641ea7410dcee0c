// Package emit serializes and renders assignment results.
//
// Two output families live here:
//
//   - [Table] and the Marshal/Write/Read functions: the JSON wire format for
//     assignment tables, sorted by block ID so output is byte-stable. This is
//     the hand-off artifact the code-injection side consumes.
//   - [ToDOT] and [RenderSVG]: Graphviz views of a graph with its assignment
//     outcome color-coded per block, for inspection and debugging.
//
// Common operations:
//
//	data, _ := emit.MarshalTable(table)           // table → []byte
//	emit.WriteTableFile(table, "table.json")      // table → file
//	back, _ := emit.ReadTableFile("table.json")   // file → table
//	svg, _ := emit.RenderSVG(emit.ToDOT(g, table, emit.Options{}))
package emit

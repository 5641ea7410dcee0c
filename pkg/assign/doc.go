// Package assign computes collision-resistant coverage bitmap slots for
// control-flow graph edges.
//
// Every block of the input graph receives a key in [0, tableSize). For a
// block with a single predecessor, the edge identity is trivial and the block
// gets one direct slot. For a block with multiple predecessors, the package
// searches for per-block hash parameters so that the closed-form rule
//
//	slot = ((cur >> localShift) XOR ((pred >> globalShift) + offset)) mod tableSize
//
// maps each incoming edge to its own slot, with no collisions inside the
// block and none against any other solved block. Blocks the search cannot
// solve fall back to explicit per-edge slots drawn from the pool of slots no
// rule claimed. Slot 0 is reserved and never allocated by fallback.
//
// The search proceeds in passes, one per candidate global shift, in strictly
// increasing order. A pass is accepted when it solves every multi-predecessor
// block, or enough of them under the configured tolerance. Within a pass each
// block is solved first-fit over its (localShift, offset) candidates and
// never revisited.
//
// All randomness (random keys, ratio draws, fallback pops) flows from one
// seeded source, so a fixed [Config.Seed] makes the whole run reproducible.
//
// The published [Table] is the complete contract with the code-injection
// side: keys, the global shift, and per-block entries. [Table.Verify]
// re-checks the collision-freedom invariants against the source graph.
package assign

package assign

import (
	"math/rand/v2"

	"github.com/covtools/edgemark/pkg/cfg"
)

// assignKeys gives every block a key in [0, tableSize). This step runs once
// over all blocks, cannot fail, and never inspects topology.
//
// Under KeySequential the keys are 0, 1, 2, ... in traversal order, masked
// into the key space (a graph larger than the table wraps; the resulting key
// collisions surface later as unsolvable blocks, same as under KeyRandom).
// Under KeyRandom each key is an independent uniform draw from rng with no
// uniqueness guarantee.
func assignKeys(g *cfg.Graph, policy KeyPolicy, tableSize uint32, rng *rand.Rand) map[string]uint32 {
	ids := g.BlockIDs()
	keys := make(map[string]uint32, len(ids))
	mask := tableSize - 1

	for i, id := range ids {
		switch policy {
		case KeyRandom:
			keys[id] = rng.Uint32N(tableSize)
		default:
			keys[id] = uint32(i) & mask
		}
	}
	return keys
}

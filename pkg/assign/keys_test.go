package assign

import (
	"math/rand/v2"
	"testing"
)

func TestAssignKeysSequential(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, nil)

	keys := assignKeys(g, KeySequential, 16, nil)
	for i, id := range g.BlockIDs() {
		if keys[id] != uint32(i) {
			t.Errorf("key[%s] = %d, want %d", id, keys[id], i)
		}
	}
}

func TestAssignKeysSequentialWraps(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, nil)

	keys := assignKeys(g, KeySequential, 2, nil)
	want := []uint32{0, 1, 0, 1}
	for i, id := range g.BlockIDs() {
		if keys[id] != want[i] {
			t.Errorf("key[%s] = %d, want %d", id, keys[id], want[i])
		}
	}
}

func TestAssignKeysRandom(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, nil)

	first := assignKeys(g, KeyRandom, 64, rand.New(rand.NewPCG(9, 9)))
	for id, k := range first {
		if k >= 64 {
			t.Errorf("key[%s] = %d, out of range", id, k)
		}
	}

	second := assignKeys(g, KeyRandom, 64, rand.New(rand.NewPCG(9, 9)))
	for id := range first {
		if first[id] != second[id] {
			t.Errorf("key[%s] differs across identically seeded draws", id)
		}
	}
}

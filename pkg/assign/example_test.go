package assign_test

import (
	"context"
	"fmt"
	"log"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/cfg"
)

// Example assigns slots to a diamond-shaped control-flow graph: the join
// block d gets a hash rule, the two branch blocks get direct slots, and the
// entry block is left uninstrumented.
func Example() {
	g := cfg.New(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddBlock(cfg.Block{ID: id}); err != nil {
			log.Fatal(err)
		}
	}
	for _, e := range []cfg.Edge{
		{From: "a", To: "b"},
		{From: "a", To: "c"},
		{From: "b", To: "d"},
		{From: "c", To: "d"},
	} {
		if err := g.AddEdge(e); err != nil {
			log.Fatal(err)
		}
	}

	assigner, err := assign.New(assign.Config{TableBits: 4}, nil)
	if err != nil {
		log.Fatal(err)
	}
	table, err := assigner.Run(context.Background(), g)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(assign.Describe(table))
	fmt.Println("d:", table.Entries["d"].Kind)
	// Output:
	// 4 blocks: 1 solved, 0 unsolved, 2 single, 0 skipped (global shift 1, 1 passes)
	// d: solved
}

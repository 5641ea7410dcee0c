package cli

import (
	"github.com/spf13/cobra"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/emit"
	"github.com/covtools/edgemark/pkg/graphio"
)

// verifyCommand creates the verify command, which checks a previously
// emitted table against the graph it was computed from. Useful after a table
// has been stored, transferred, or hand-edited.
func (c *CLI) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [graph.json] [table.json]",
		Short: "Check that a table is consistent with a control-flow graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphPath, tablePath := args[0], args[1]

			g, err := graphio.ReadGraphFile(graphPath)
			if err != nil {
				return err
			}
			table, err := emit.ReadTableFile(tablePath)
			if err != nil {
				return err
			}

			if err := table.Verify(g); err != nil {
				printError("verification failed: %v", err)
				return err
			}

			printSuccess("Verified %s", assign.Describe(table))
			printStats(g.BlockCount(), g.EdgeCount(), false)
			return nil
		},
	}
}

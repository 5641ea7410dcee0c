package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covtools/edgemark/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (single format) or base path
	formats  []string // output formats: "dot", "svg"
	detailed bool     // show keys, slots, and rules in labels
	refresh  bool     // bypass and repopulate the cache
	noCache  bool     // disable the result cache entirely
}

// renderCommand creates the render command for visualizing assignments.
// It runs the same pipeline as assign but defaults to graphical output.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a slot assignment as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = splitFormats(formatsStr, pipeline.FormatSVG)
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show keys, slots, and rules in labels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// runRender executes the pipeline with visual formats and writes the output.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	for _, f := range opts.formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		GraphPath: input,
		Refresh:   opts.refresh,
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Logger:    c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "rendering "+strings.Join(opts.formats, ", "))
	spinner.Start()
	result, err := runner.Execute(ctx, pipeOpts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	printStats(result.Stats.BlockCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)

	paths, err := writeArtifacts(input, opts.output, opts.formats, result.Artifacts)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/pipeline"
)

// assignOpts holds the command-line flags for the assign command.
type assignOpts struct {
	output      string   // output file path (single format) or base path
	formats     []string // output formats: "json", "dot", "svg"
	detailed    bool     // show keys, slots, and rules in DOT/SVG labels
	tableBits   uint32   // log2 of the coverage bitmap size
	randomKeys  bool     // draw block keys randomly instead of sequentially
	entrySingle bool     // give entry blocks a direct slot
	ratio       int      // percentage of blocks to instrument (0 = from env)
	tolerance   float64  // fraction of multis a pass may leave unsolved
	budget      int      // search triple budget (0 = default, negative = unlimited)
	seed        uint64   // seed for key, ratio, and pool draws
	refresh     bool     // bypass and repopulate the cache
	noCache     bool     // disable the result cache entirely
}

// assignCommand creates the assign command for computing slot tables.
func (c *CLI) assignCommand() *cobra.Command {
	var formatsStr string
	var opts assignOpts

	cmd := &cobra.Command{
		Use:   "assign [graph.json]",
		Short: "Compute a slot assignment table for a control-flow graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = splitFormats(formatsStr, pipeline.FormatJSON)
			return c.runAssign(cmd.Context(), args[0], &opts)
		},
	}

	fileCfg := loadFileConfig()

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", strings.Join(fileCfg.Formats, ","), "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show keys, slots, and rules in DOT/SVG labels")
	cmd.Flags().Uint32Var(&opts.tableBits, "table-bits", fileCfg.TableBits, "log2 of the coverage bitmap size")
	cmd.Flags().BoolVar(&opts.randomKeys, "random-keys", false, "draw block keys randomly instead of sequentially")
	cmd.Flags().BoolVar(&opts.entrySingle, "entry-single", false, "give entry blocks a direct slot")
	cmd.Flags().IntVar(&opts.ratio, "ratio", 0, "percentage of blocks to instrument, 1-100 (default from "+assign.EnvInstRatio+")")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", fileCfg.Tolerance, "fraction of multi-predecessor blocks a pass may leave unsolved")
	cmd.Flags().IntVar(&opts.budget, "budget", 0, "search triple budget (negative = unlimited)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for key, ratio, and pool draws")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// runAssign executes the full pipeline for the assign command and writes the
// requested artifacts.
func (c *CLI) runAssign(ctx context.Context, input string, opts *assignOpts) error {
	ratio, err := effectiveRatio(opts.ratio)
	if err != nil {
		return err
	}
	printBanner(ratio)

	cfg := assign.Config{
		TableBits: opts.tableBits,
		InstRatio: ratio,
		Tolerance: opts.tolerance,
		Budget:    opts.budget,
		Seed:      opts.seed,
	}
	if opts.randomKeys {
		cfg.KeyPolicy = assign.KeyRandom
	}
	if opts.entrySingle {
		cfg.EntryPolicy = assign.EntrySingle
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		GraphPath: input,
		Assign:    cfg,
		Refresh:   opts.refresh,
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Logger:    c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "computing assignment")
	spinner.Start()
	result, err := runner.Execute(ctx, pipeOpts)
	spinner.Stop()
	if err != nil {
		var exhausted *assign.SlotExhaustionError
		if errors.As(err, &exhausted) {
			printError("slot pool exhausted: %d claimed, %d required, %d available", exhausted.Claimed, exhausted.Required, exhausted.Available)
			printDetail("increase --table-bits or lower --ratio")
		}
		return err
	}

	printSuccess("Assigned %s", assign.Describe(result.Table))
	printStats(result.Stats.BlockCount, result.Stats.EdgeCount, result.CacheInfo.AssignHit)

	paths, err := writeArtifacts(input, opts.output, opts.formats, result.Artifacts)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// effectiveRatio resolves the instrumentation ratio from the flag or, when
// the flag is unset, from the environment.
func effectiveRatio(flag int) (int, error) {
	if flag != 0 {
		if flag < 1 || flag > 100 {
			return 0, fmt.Errorf("%w: got %d", assign.ErrInvalidRatio, flag)
		}
		return flag, nil
	}
	return assign.RatioFromEnv()
}

// splitFormats parses a comma-separated format string into a slice, applying
// the fallback when empty.
func splitFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	return strings.Split(s, ",")
}

// writeArtifacts writes each emitted artifact to disk and returns the paths
// written. With a single format, output names the file directly; otherwise it
// is the base path and the format extension is appended. An empty output
// derives the base from the input path. The json artifact gets a .table.json
// extension so it never clobbers the input graph.
func writeArtifacts(input, output string, formats []string, artifacts map[string][]byte) ([]string, error) {
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		ext := format
		if format == pipeline.FormatJSON {
			ext = "table.json"
		}
		path := base + "." + ext
		if output != "" && len(formats) == 1 {
			path = output
		}
		out, err := openOutput(path)
		if err != nil {
			return nil, err
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/cache"
	"github.com/covtools/edgemark/pkg/cfg"
	"github.com/covtools/edgemark/pkg/emit"
	"github.com/covtools/edgemark/pkg/graphio"
	"github.com/covtools/edgemark/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → assign → emit pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	g, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.BlockCount = g.BlockCount()
	result.Stats.EdgeCount = g.EdgeCount()

	// Compute graph hash for cache keys and API responses
	if graphData, err := graphio.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("loaded graph",
		"run", result.RunID,
		"source", opts.Source(),
		"blocks", g.BlockCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Assign
	assignStart := time.Now()
	table, assignHit, err := r.AssignWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	result.Table = table
	result.Stats.AssignTime = time.Since(assignStart)
	result.CacheInfo.AssignHit = assignHit

	r.Logger.Info("computed assignment",
		"solved", table.Stats.Solved,
		"unsolved", table.Stats.Unsolved,
		"duration", result.Stats.AssignTime)

	// Stage 3: Emit
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, table, opts)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("emitted outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the control-flow graph named by the options.
func (r *Runner) Load(ctx context.Context, opts Options) (*cfg.Graph, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Source())

	var (
		g   *cfg.Graph
		err error
	)
	if opts.Graph != nil {
		g, err = graphio.ToCFG(*opts.Graph)
	} else {
		g, err = graphio.ReadGraphFile(opts.GraphPath)
	}

	blocks := 0
	if g != nil {
		blocks = g.BlockCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Source(), blocks, time.Since(start), err)
	return g, err
}

// AssignWithCacheInfo computes the assignment table with caching and returns
// cache hit info.
func (r *Runner) AssignWithCacheInfo(ctx context.Context, g *cfg.Graph, opts Options) (*assign.Table, bool, error) {
	if err := opts.Assign.Validate(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key
	graphData, err := graphio.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	cacheKey := r.Keyer.TableKey(cache.Hash(graphData), opts.Assign)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if table, err := emit.ReadTable(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "table")
				return table, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "table")
	}

	// Assign
	assigner, err := assign.New(opts.Assign, opts.Logger)
	if err != nil {
		return nil, false, err
	}
	table, err := assigner.Run(ctx, g)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := emit.MarshalTable(table); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTable)
		observability.Cache().OnCacheSet(ctx, "table", len(data))
	}

	return table, false, nil // Cache miss
}

// Assign is a convenience wrapper that calls AssignWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Assign(ctx context.Context, g *cfg.Graph, opts Options) (*assign.Table, error) {
	table, _, err := r.AssignWithCacheInfo(ctx, g, opts)
	return table, err
}

// RenderWithCacheInfo emits artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *cfg.Graph, table *assign.Table, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForEmit(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the serialized table
	tableData, err := emit.MarshalTable(table)
	if err != nil {
		return nil, false, fmt.Errorf("serialize table for cache key: %w", err)
	}
	tableHash := cache.Hash(tableData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.RenderKey(tableHash, opts.RenderKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "render")
			return artifacts, true, nil // All artifacts from cache
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	// Emit all formats
	start := time.Now()
	observability.Pipeline().OnEmitStart(ctx, opts.Formats)
	rendered, err := r.emitFormats(g, table, tableData, opts)
	observability.Pipeline().OnEmitComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.RenderKey(tableHash, opts.RenderKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRender)
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *cfg.Graph, table *assign.Table, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, table, opts)
	return artifacts, err
}

// emitFormats produces every requested format. tableData is the table's
// canonical JSON, already serialized for the cache key, so the JSON format
// reuses it instead of encoding twice.
func (r *Runner) emitFormats(g *cfg.Graph, table *assign.Table, tableData []byte, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			out[format] = tableData
		case FormatDOT:
			out[format] = []byte(emit.ToDOT(g, table, emit.Options{Detailed: opts.Detailed}))
		case FormatSVG:
			svg, err := emit.RenderSVG(emit.ToDOT(g, table, emit.Options{Detailed: opts.Detailed}))
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			out[format] = svg
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

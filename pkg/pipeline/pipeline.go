// Package pipeline provides the core assignment pipeline for Edgemark.
//
// This package implements the complete load → assign → emit pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a control-flow graph from a file or an inline document
//  2. Assign: Compute the slot assignment table for the graph
//  3. Emit: Generate output in various formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    GraphPath: "cfg.json",
//	    Formats:   []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table := result.Artifacts["json"]
//
// Run individual stages:
//
//	// Load only
//	g, err := runner.Load(ctx, opts)
//
//	// Assign with an existing graph
//	table, err := runner.Assign(ctx, g, opts)
//
//	// Emit with an existing table
//	artifacts, err := runner.Render(ctx, g, table, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/cache"
	"github.com/covtools/edgemark/pkg/cfg"
	"github.com/covtools/edgemark/pkg/graphio"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the assignment pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of GraphPath (CLI) or Graph (API requests)
	// must be set.
	GraphPath string         `json:"graph_path,omitempty"`
	Graph     *graphio.Graph `json:"graph,omitempty"`

	// Assign options
	Assign  assign.Config `json:"assign"`
	Refresh bool          `json:"refresh,omitempty"` // Bypass and repopulate the cache

	// Emit options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Keys, slots, and rules in DOT/SVG labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution in logs and hooks.
	RunID string

	// Graph is the loaded control-flow graph.
	Graph *cfg.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Table is the computed assignment table.
	Table *assign.Table

	// Artifacts contains emitted outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount int
	EdgeCount  int
	LoadTime   time.Duration
	AssignTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	AssignHit bool // Whether the assignment table came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.Assign.Validate(); err != nil {
		return err
	}
	o.SetEmitDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.GraphPath == "" && o.Graph == nil {
		return fmt.Errorf("graph_path or graph is required")
	}
	if o.GraphPath != "" && o.Graph != nil {
		return fmt.Errorf("graph_path and graph are mutually exclusive")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetEmitDefaults sets default values for emitting.
func (o *Options) SetEmitDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForEmit validates and sets defaults for emitting.
func (o *Options) ValidateForEmit() error {
	o.SetEmitDefaults()
	return ValidateFormats(o.Formats)
}

// Source names the graph origin for logs and hooks.
func (o *Options) Source() string {
	if o.GraphPath != "" {
		return o.GraphPath
	}
	return "inline"
}

// RenderKeyOpts returns cache key options for artifact rendering.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}

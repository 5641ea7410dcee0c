// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about assignment runs, pipeline stages, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAssignHooks(&myAssignHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Assign().OnSearchStart(ctx, multiCount)
//	// ... run the search ...
//	observability.Assign().OnSearchComplete(ctx, shift, solved, unsolved)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Assign Hooks
// =============================================================================

// AssignHooks receives events from slot assignment runs.
type AssignHooks interface {
	// OnSearchStart fires before the rule search, with the number of
	// multi-predecessor blocks it will attempt.
	OnSearchStart(ctx context.Context, multiCount int)

	// OnPassComplete fires after each global-shift pass with that pass's
	// solved/unsolved split, whether or not the pass was accepted.
	OnPassComplete(ctx context.Context, globalShift, solved, unsolved int)

	// OnSearchComplete fires after the rule search with the accepted global
	// shift and the solved/unsolved split.
	OnSearchComplete(ctx context.Context, globalShift, solved, unsolved int)

	// OnFallbackComplete fires after fallback allocation. err is non-nil on
	// slot exhaustion, in which case popped counts the slots handed out
	// before the pool ran dry.
	OnFallbackComplete(ctx context.Context, popped int, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the assignment pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, blockCount int, duration time.Duration, err error)

	// Emit events
	OnEmitStart(ctx context.Context, formats []string)
	OnEmitComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAssignHooks is a no-op implementation of AssignHooks.
type NoopAssignHooks struct{}

func (NoopAssignHooks) OnSearchStart(context.Context, int)              {}
func (NoopAssignHooks) OnPassComplete(context.Context, int, int, int)   {}
func (NoopAssignHooks) OnSearchComplete(context.Context, int, int, int) {}
func (NoopAssignHooks) OnFallbackComplete(context.Context, int, error)  {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnEmitStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnEmitComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	assignHooks   AssignHooks   = NoopAssignHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetAssignHooks registers custom assignment hooks.
// This should be called once at application startup before any assignment runs.
func SetAssignHooks(h AssignHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		assignHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Assign returns the registered assignment hooks.
func Assign() AssignHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return assignHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	assignHooks = NoopAssignHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}

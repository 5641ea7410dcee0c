package cache

import (
	"context"
	"time"

	"github.com/covtools/edgemark/pkg/assign"
)

// Default TTLs per artifact type. Assignment tables are pure functions of
// the graph and configuration, so they could live forever; bounded TTLs keep
// cache directories from growing without limit.
const (
	// TTLTable is the default lifetime for cached assignment tables.
	TTLTable = 7 * 24 * time.Hour

	// TTLRender is the default lifetime for cached rendered artifacts.
	TTLRender = 24 * time.Hour
)

// Cache is the storage interface for computed artifacts. Implementations:
//
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: shared backend, for the API server
//   - [NullCache]: disables caching
//
// Get reports a miss with (nil, false, nil); errors are reserved for backend
// failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for the pipeline's artifact types. Keys must be
// pure functions of their inputs: the same graph and configuration always
// map to the same key.
type Keyer interface {
	// TableKey identifies an assignment table by the hash of its input
	// graph and the full run configuration.
	TableKey(graphHash string, cfg assign.Config) string

	// RenderKey identifies a rendered artifact by the hash of its table
	// and the render options.
	RenderKey(tableHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts captures everything that changes rendered output.
type RenderKeyOpts struct {
	Format   string // "dot" or "svg"
	Detailed bool
}

// DefaultKeyer is the standard Keyer implementation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// TableKey generates a key for assignment table caching. Every Config field
// participates in the hash: two runs differing only in seed or tolerance
// must not share a table.
func (k *DefaultKeyer) TableKey(graphHash string, cfg assign.Config) string {
	return hashKey("table", graphHash, cfg)
}

// RenderKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) RenderKey(tableHash string, opts RenderKeyOpts) string {
	return hashKey("render", tableHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

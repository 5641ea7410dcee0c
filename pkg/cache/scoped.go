package cache

import "github.com/covtools/edgemark/pkg/assign"

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The API
// server uses it to keep per-project cache entries apart when several
// projects share one Redis backend.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:billing:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TableKey generates a prefixed key for assignment table caching.
func (k *ScopedKeyer) TableKey(graphHash string, cfg assign.Config) string {
	return k.prefix + k.inner.TableKey(graphHash, cfg)
}

// RenderKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) RenderKey(tableHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(tableHash, opts)
}

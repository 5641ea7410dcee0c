// Package cache provides artifact caching for the assignment pipeline.
//
// Assignment tables and rendered artifacts are pure functions of their
// inputs, so the pipeline caches them keyed by content hash plus
// configuration:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.TableKey(cache.Hash(graphBytes), cfg)
//
// Three backends implement [Cache]:
//
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: shared backend, for the API server
//   - [NullCache]: disables caching entirely
//
// [ScopedKeyer] prefixes keys for namespace isolation when projects share a
// backend. [RetryWithBackoff] retries transient backend failures marked with
// [Retryable].
package cache

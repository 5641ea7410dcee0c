package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a namespaced cache key of the form prefix:hash(parts...).
// Parts are JSON-encoded before hashing, so a table key covers both the graph
// hash and every field of the assignment config: change either and the key
// changes with it.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 digest of data. This is the content hash that
// identifies graphs and tables everywhere: cache keys, the API's graph_hash
// field, and persisted run records.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a cache key as prefix:hash(parts...). Parts are JSON
// encoded so option structs key on their field values.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the full 64-character hex SHA-256 of data. The full hash
// is kept to rule out key collisions between distinct inputs.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

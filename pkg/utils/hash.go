package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex SHA-256 digest of the exact payload bytes.
// The digest keys the global parse cache, so it must depend on nothing but
// the bytes themselves (not filename, session, or user).
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

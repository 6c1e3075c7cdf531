package parser

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ContentHash returns the hex-encoded blake2b-256 digest of content. Two
// calls with byte-identical content always return the same string,
// regardless of path, mtime, or language — the cache key is content, not
// location.
func ContentHash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

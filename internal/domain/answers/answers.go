// Package answers normalizes and hashes submitted answers. Only hashes cross
// the storage boundary; plaintext answers are never persisted.
package answers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize trims surrounding whitespace and case-folds the answer so
// cosmetic differences never fail a correct submission.
func Normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// Hash returns the hex SHA-256 digest of the normalized answer. The catalog
// stores the same digest for the correct answer, so comparison is a string
// equality check.
func Hash(answer string) string {
	sum := sha256.Sum256([]byte(Normalize(answer)))
	return hex.EncodeToString(sum[:])
}

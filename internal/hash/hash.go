// Package hash computes content checksums.
//
// The installer records a checksum for every file it writes into a project.
// Before undoing an answer it compares the file on disk against that record,
// so a file edited by hand is never silently deleted.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes content checksums.
type Hasher interface {
	// HashBytes computes the hash of data.
	HashBytes(data []byte) string
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashBytes computes the hex encoded SHA-256 hash of data.
func (h *SHA256Hasher) HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

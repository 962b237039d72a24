package state

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// ComputeSessionID computes a stable session ID from a project root.
// The root is cleaned first, so equivalent spellings share a session.
func ComputeSessionID(projectRoot string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(projectRoot)))
	return hex.EncodeToString(hash[:])
}

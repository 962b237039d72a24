// Package fsops provides filesystem operations with safety guarantees.
//
// Every write the installer makes to a project tree goes through the FS
// interface, so tests can substitute failing or recording implementations.
//
// Key features:
//   - Atomic writes using temp file + fsync + rename
//   - Path validation for project-relative paths and identifiers
//   - Pruning of directories emptied by an undo
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]os.DirEntry, error)

	// PruneEmptyDirs removes dir and its empty parents up to, not including, stop.
	PruneEmptyDirs(dir, stop string) error

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove removes a file or empty directory.
func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ReadDir lists the entries of a directory.
func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
// Readers observe either the old or the new content, never a partial file.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Temp file must live on the same filesystem for rename to be atomic
	tmpFile, err := os.CreateTemp(dir, ".mezzio-installer-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// PruneEmptyDirs removes dir and then each empty parent, stopping at stop
// or at the first directory that still has entries.
func (fs *RealFS) PruneEmptyDirs(dir, stop string) error {
	dir = filepath.Clean(dir)
	stop = filepath.Clean(stop)
	if dir != stop && !strings.HasPrefix(dir, stop+string(filepath.Separator)) {
		return fmt.Errorf("refusing to prune %q outside of %q", dir, stop)
	}

	for dir != stop {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				dir = filepath.Dir(dir)
				continue
			}
			return fmt.Errorf("failed to read directory: %w", err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove empty directory: %w", err)
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// ValidateRelPath validates a path relative to a project root.
// Returns an error if the path is empty, absolute or escapes the root.
func (fs *RealFS) ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(relPath)

	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", cleaned)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", cleaned)
	}

	return nil
}

// ValidateIdentifier validates an identifier (e.g. a session ID) used as a file name.
func (fs *RealFS) ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, string(filepath.Separator)) {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}
	if id == "." || strings.HasPrefix(id, "..") {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}

// Package config manages installer settings and data directories.
//
// The data root (default ~/.mezzio-installer) holds session records and
// lock files. It can be moved with MEZZIO_INSTALLER_ROOT. Other settings
// come from the process environment or, failing that, from an optional
// dotenv file at <root>/installer.env.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RootEnv overrides the data root.
const RootEnv = "MEZZIO_INSTALLER_ROOT"

// Paths contains all the filesystem paths used by the installer.
type Paths struct {
	// Root is the base directory for installer data (default: ~/.mezzio-installer)
	Root string

	// Sessions holds one JSON record per install session
	Sessions string

	// Locks holds the per-session lock files
	Locks string

	// EnvFile is the optional dotenv settings file
	EnvFile string
}

// DefaultPaths returns the default paths.
// Paths can be overridden with environment variables:
// - MEZZIO_INSTALLER_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(RootEnv)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".mezzio-installer")
	}
	return PathsAt(root), nil
}

// PathsAt returns the paths rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:     root,
		Sessions: filepath.Join(root, "sessions"),
		Locks:    filepath.Join(root, "locks"),
		EnvFile:  filepath.Join(root, "installer.env"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Sessions,
		p.Locks,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

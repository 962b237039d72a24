package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Setting keys.
const (
	LockStaleEnv   = "MEZZIO_INSTALLER_LOCK_STALE"
	PreviewAddrEnv = "MEZZIO_INSTALLER_ADDR"
)

// Defaults.
const (
	DefaultLockStaleAfter = 2 * time.Hour
	DefaultPreviewAddr    = "127.0.0.1:8080"
)

// Settings is the resolved installer configuration.
type Settings struct {
	Paths Paths

	// LockStaleAfter is the age after which a session lock held by a live
	// process is considered abandoned.
	LockStaleAfter time.Duration

	// PreviewAddr is the listen address of the preview server.
	PreviewAddr string
}

// Load resolves settings for the default data root.
func Load() (*Settings, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return LoadFrom(paths)
}

// LoadFrom resolves settings for paths. Process environment wins over the
// env file; a missing env file is not an error.
func LoadFrom(paths *Paths) (*Settings, error) {
	fileVars := map[string]string{}
	if _, err := os.Stat(paths.EnvFile); err == nil {
		fileVars, err = godotenv.Read(paths.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", paths.EnvFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", paths.EnvFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok && v != ""
	}

	s := &Settings{
		Paths:          *paths,
		LockStaleAfter: DefaultLockStaleAfter,
		PreviewAddr:    DefaultPreviewAddr,
	}

	if v, ok := lookup(LockStaleEnv); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", LockStaleEnv, v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be positive", LockStaleEnv, v)
		}
		s.LockStaleAfter = d
	}
	if v, ok := lookup(PreviewAddrEnv); ok {
		s.PreviewAddr = v
	}

	return s, nil
}

// Package skeleton holds the project files the installer writes.
//
// The seed is the minimal tree a session starts from: a composer manifest,
// the config aggregator and the front controller. Option files are written
// when an answer selects them (container bootstrap, App config provider,
// renderer home page, development error handler config).
package skeleton

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
)

//go:embed seed
var seedFS embed.FS

//go:embed files
var filesFS embed.FS

// ErrNotEmpty indicates the project root already holds a project.
var ErrNotEmpty = errors.New("project root already contains a composer.json")

// File is a project file, Path relative to the project root.
type File struct {
	Path    string
	Content []byte
}

// SeedFiles returns the seed project sorted by path.
func SeedFiles() ([]File, error) {
	var files []File
	err := fs.WalkDir(seedFS, "seed", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := seedFS.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: strings.TrimPrefix(p, "seed/"), Content: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read seed project: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Seed writes the seed project into root and returns the written paths.
// It refuses to touch a root that already has a composer.json.
func Seed(fsys fsops.FS, root string) ([]string, error) {
	exists, err := fsys.Exists(filepath.Join(root, "composer.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to check project root: %w", err)
	}
	if exists {
		return nil, ErrNotEmpty
	}

	files, err := SeedFiles()
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := fsys.ValidateRelPath(f.Path); err != nil {
			return written, err
		}
		dest := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := fsys.AtomicWrite(dest, f.Content, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}

func readFile(name string) ([]byte, error) {
	data, err := filesFS.ReadFile(path.Join("files", name))
	if err != nil {
		return nil, fmt.Errorf("missing skeleton file %s: %w", name, err)
	}
	return data, nil
}

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/hash"
	"github.com/geerteltink/mezzio-skeleton/internal/manifest"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// tree buffers edits to project files. Nothing reaches the disk until
// flush, so a failed undo or plan leaves the project untouched.
type tree struct {
	fs    fsops.FS
	root  string
	files map[string]*bufferedFile
	order []string
}

type bufferedFile struct {
	original []byte
	existed  bool
	content  []byte
	exists   bool
}

func newTree(fs fsops.FS, root string) *tree {
	return &tree{
		fs:    fs,
		root:  root,
		files: make(map[string]*bufferedFile),
	}
}

func (t *tree) abs(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}

func (t *tree) load(rel string) (*bufferedFile, error) {
	if f, ok := t.files[rel]; ok {
		return f, nil
	}
	if err := t.fs.ValidateRelPath(rel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateDrift, err)
	}

	f := &bufferedFile{}
	data, err := t.fs.ReadFile(t.abs(rel))
	switch {
	case err == nil:
		f.original, f.existed = data, true
		f.content, f.exists = data, true
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrIOFailure, rel, err)
	}

	t.files[rel] = f
	t.order = append(t.order, rel)
	return f, nil
}

func (t *tree) read(rel string) ([]byte, bool, error) {
	f, err := t.load(rel)
	if err != nil {
		return nil, false, err
	}
	return f.content, f.exists, nil
}

func (t *tree) write(rel string, data []byte) error {
	f, err := t.load(rel)
	if err != nil {
		return err
	}
	f.content, f.exists = data, true
	return nil
}

func (t *tree) remove(rel string) error {
	f, err := t.load(rel)
	if err != nil {
		return err
	}
	f.content, f.exists = nil, false
	return nil
}

// flush writes changed files, then removes deleted ones and prunes the
// directories they leave empty.
func (t *tree) flush() (written, removed []string, err error) {
	written, removed = []string{}, []string{}

	for _, rel := range t.order {
		f := t.files[rel]
		if !f.exists || (f.existed && bytes.Equal(f.content, f.original)) {
			continue
		}
		if err := t.fs.AtomicWrite(t.abs(rel), f.content, 0644); err != nil {
			return written, removed, fmt.Errorf("%w: failed to write %s: %v", ErrIOFailure, rel, err)
		}
		written = append(written, rel)
	}

	for _, rel := range t.order {
		f := t.files[rel]
		if f.exists || !f.existed {
			continue
		}
		path := t.abs(rel)
		if err := t.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return written, removed, fmt.Errorf("%w: failed to remove %s: %v", ErrIOFailure, rel, err)
		}
		if err := t.fs.PruneEmptyDirs(filepath.Dir(path), t.root); err != nil {
			return written, removed, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		removed = append(removed, rel)
	}

	return written, removed, nil
}

// mutation applies undo records and answer plans to a buffered tree.
type mutation struct {
	tree   *tree
	hasher hash.Hasher

	manifest      *manifest.Manifest
	manifestDirty bool

	// aggregatorPath is the config aggregator, relative to the root
	aggregatorPath string

	// managed is the provider block as currently written to the aggregator
	managed []string

	// providers is the provider block to write
	providers []state.ProviderEntry
}

func (e *Engine) newMutation(root, aggregatorPath string, st *state.SessionState) (*mutation, error) {
	t := newTree(e.fs, root)

	data, ok, err := t.read(manifest.FileName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing", ErrIOFailure, manifest.FileName)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	return &mutation{
		tree:           t,
		hasher:         e.hasher,
		manifest:       m,
		aggregatorPath: aggregatorPath,
		managed:        st.ProviderRefs(),
		providers:      slices.Clone(st.Providers),
	}, nil
}

// undo reverts the edits recorded for question, newest first.
func (m *mutation) undo(question string, u state.Undo) error {
	for i := len(u.Files) - 1; i >= 0; i-- {
		rec := u.Files[i]
		data, exists, err := m.tree.read(rec.Path)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s written for %s was removed", ErrStateDrift, rec.Path, question)
		}
		if m.hasher.HashBytes(data) != rec.Checksum {
			return fmt.Errorf("%w: %s written for %s was modified", ErrStateDrift, rec.Path, question)
		}
		if rec.Previous != nil {
			err = m.tree.write(rec.Path, []byte(*rec.Previous))
		} else {
			err = m.tree.remove(rec.Path)
		}
		if err != nil {
			return err
		}
	}

	if rec := u.Autoload; rec != nil {
		current, ok, err := m.manifest.Autoload(rec.Namespace)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if !ok || current != rec.Path {
			return fmt.Errorf("%w: autoload %s no longer maps to %s", ErrStateDrift, rec.Namespace, rec.Path)
		}
		if err := m.manifest.SetAutoload(rec.Namespace, rec.Previous); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		m.manifestDirty = true
	}

	for i := len(u.Packages) - 1; i >= 0; i-- {
		rec := u.Packages[i]
		if err := m.manifest.Remove(rec.Section, rec.Name); err != nil {
			if errors.Is(err, manifest.ErrPackageMissing) {
				return fmt.Errorf("%w: %v", ErrStateDrift, err)
			}
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		m.manifestDirty = true
	}

	if u.Provider != "" {
		next := make([]state.ProviderEntry, 0, len(m.providers))
		found := false
		for _, p := range m.providers {
			if p.Question == question && p.Reference == u.Provider {
				found = true
				continue
			}
			next = append(next, p)
		}
		if !found {
			return fmt.Errorf("%w: no managed provider %s recorded for %s", ErrDuplicateInsertion, u.Provider, question)
		}
		m.providers = next
	}

	return nil
}

// apply executes plan and returns the record needed to undo it.
func (m *mutation) apply(plan *planner.AnswerPlan) (state.Undo, error) {
	var u state.Undo
	question := string(plan.Question)

	for _, op := range plan.Operations {
		switch op.Type {
		case planner.OpRequire:
			added, err := m.manifest.Require(op.Section, op.Package.Name, op.Package.Version)
			if err != nil {
				return u, fmt.Errorf("%w: %v", ErrIOFailure, err)
			}
			// A package the project already required stays when the answer is undone
			if added {
				m.manifestDirty = true
				u.Packages = append(u.Packages, state.PackageRecord{
					Section: op.Section,
					Name:    op.Package.Name,
					Version: op.Package.Version,
				})
			}

		case planner.OpAutoload:
			previous, _, err := m.manifest.Autoload(op.Namespace)
			if err != nil {
				return u, fmt.Errorf("%w: %v", ErrIOFailure, err)
			}
			if err := m.manifest.SetAutoload(op.Namespace, op.AutoloadPath); err != nil {
				return u, fmt.Errorf("%w: %v", ErrIOFailure, err)
			}
			m.manifestDirty = true
			u.Autoload = &state.AutoloadRecord{
				Namespace: op.Namespace,
				Path:      op.AutoloadPath,
				Previous:  previous,
			}

		case planner.OpWriteFile:
			previous, exists, err := m.tree.read(op.RelPath)
			if err != nil {
				return u, err
			}
			rec := state.FileRecord{
				Path:     op.RelPath,
				Checksum: m.hasher.HashBytes(op.Content),
			}
			if exists {
				s := string(previous)
				rec.Previous = &s
			}
			if err := m.tree.write(op.RelPath, op.Content); err != nil {
				return u, err
			}
			u.Files = append(u.Files, rec)

		case planner.OpProvider:
			for _, p := range m.providers {
				if p.Reference == op.Reference {
					return u, fmt.Errorf("%w: %s already managed for %s", ErrDuplicateInsertion, op.Reference, p.Question)
				}
			}
			m.providers = append(m.providers, state.ProviderEntry{Question: question, Reference: op.Reference})
			u.Provider = op.Reference

		default:
			return u, fmt.Errorf("unknown operation type: %s", op.Type)
		}
	}

	return u, nil
}

// commit renders the manifest and the provider block into the tree and
// flushes it to disk.
func (m *mutation) commit() (written, removed []string, err error) {
	if m.manifestDirty {
		data, err := m.manifest.Bytes()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := m.tree.write(manifest.FileName, data); err != nil {
			return nil, nil, err
		}
	}

	next := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		next = append(next, p.Reference)
	}
	if !slices.Equal(next, m.managed) {
		content, ok, err := m.tree.read(m.aggregatorPath)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s is missing", ErrStateDrift, m.aggregatorPath)
		}
		out, err := aggregator.Rewrite(content, m.managed, next)
		if err != nil {
			if errors.Is(err, aggregator.ErrMarkerNotFound) {
				return nil, nil, fmt.Errorf("%w: %s: %v", ErrStateDrift, m.aggregatorPath, err)
			}
			return nil, nil, err
		}
		if err := m.tree.write(m.aggregatorPath, out); err != nil {
			return nil, nil, err
		}
	}

	return m.tree.flush()
}

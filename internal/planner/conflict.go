package planner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
)

// ConflictChecker checks whether an answer may write a project file.
type ConflictChecker struct {
	fs   fsops.FS
	root string

	// owned are files the answer being replaced wrote; it may overwrite them
	owned map[string]bool

	// others are files written by answers to other questions
	others map[string]string

	force bool

	// aggregatorPath is the project-relative config aggregator ("" skips provider checks)
	aggregatorPath string

	// managedProviders are the references the session wrote into the aggregator
	managedProviders map[string]bool
}

// NewConflictChecker creates a new ConflictChecker.
// owned lists the files written by the previous answer to the same question,
// others maps files written by other answers to their question.
func NewConflictChecker(fs fsops.FS, root string, owned []string, others map[string]string, force bool) *ConflictChecker {
	c := &ConflictChecker{
		fs:     fs,
		root:   root,
		owned:  make(map[string]bool, len(owned)),
		others: others,
		force:  force,
	}
	for _, p := range owned {
		c.owned[p] = true
	}
	return c
}

// CheckPath checks for conflicts at the given project-relative path.
// Returns a Conflict if one is detected, or nil if the path is safe to write.
func (c *ConflictChecker) CheckPath(relPath string) *Conflict {
	if err := c.fs.ValidateRelPath(relPath); err != nil {
		return &Conflict{
			Path:     relPath,
			Reason:   err.Error(),
			Existing: "unknown",
		}
	}

	// Files of another answer are never overwritten, force or not: its
	// undo record would no longer match.
	if question, ok := c.others[relPath]; ok {
		return &Conflict{
			Path:     relPath,
			Reason:   fmt.Sprintf("File is managed by the %s answer", question),
			Existing: "managed",
		}
	}

	if c.owned[relPath] {
		return nil
	}

	exists, err := c.fs.Exists(filepath.Join(c.root, filepath.FromSlash(relPath)))
	if err != nil {
		return &Conflict{
			Path:     relPath,
			Reason:   fmt.Sprintf("Failed to check path: %v", err),
			Existing: "unknown",
		}
	}
	if !exists {
		return nil
	}

	if !c.force {
		return &Conflict{
			Path:     relPath,
			Reason:   "Unmanaged file exists at destination",
			Existing: "unmanaged",
		}
	}
	// Force is enabled - the previous content is kept in the undo record
	return nil
}

// WithAggregator enables provider checks against the aggregator at relPath.
// managed lists the references the session itself inserted.
func (c *ConflictChecker) WithAggregator(relPath string, managed []string) *ConflictChecker {
	c.aggregatorPath = relPath
	c.managedProviders = make(map[string]bool, len(managed))
	for _, ref := range managed {
		c.managedProviders[ref] = true
	}
	return c
}

// CheckProvider checks whether reference can be inserted into the aggregator.
// A reference the project already lists outside the managed block is a
// conflict even with force: inserting it would list the provider twice.
func (c *ConflictChecker) CheckProvider(reference string) *Conflict {
	if c.aggregatorPath == "" || c.managedProviders[reference] {
		return nil
	}

	data, err := c.fs.ReadFile(filepath.Join(c.root, filepath.FromSlash(c.aggregatorPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &Conflict{
			Path:     c.aggregatorPath,
			Reason:   fmt.Sprintf("Failed to read config aggregator: %v", err),
			Existing: "unknown",
		}
	}

	listed, err := aggregator.Contains(data, reference)
	if err != nil {
		return &Conflict{
			Path:     c.aggregatorPath,
			Reason:   err.Error(),
			Existing: "unknown",
		}
	}
	if listed {
		return &Conflict{
			Path:     c.aggregatorPath,
			Reason:   fmt.Sprintf("%s is already listed by the project", reference),
			Existing: "unmanaged",
		}
	}
	return nil
}

// IsPathOwned returns true if the path was written by the answer being replaced.
func (c *ConflictChecker) IsPathOwned(relPath string) bool {
	return c.owned[relPath]
}

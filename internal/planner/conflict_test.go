package planner

import (
	"errors"
	"os"
	"testing"

	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
)

// mockFS is a mock implementation of fsops.FS for testing
type mockFS struct {
	fsops.RealFS

	exists    map[string]bool
	existsErr error
	files     map[string]string
}

func newMockFS() *mockFS {
	return &mockFS{exists: make(map[string]bool), files: make(map[string]string)}
}

func (m *mockFS) ReadFile(path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

func (m *mockFS) Exists(path string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.exists[path], nil
}

// Unused methods for mockFS
func (m *mockFS) AtomicWrite(path string, data []byte, perm os.FileMode) error { return nil }
func (m *mockFS) Remove(path string) error                                     { return nil }
func (m *mockFS) MkdirAll(path string, perm os.FileMode) error                 { return nil }

func TestConflictChecker_CheckPath_FilesystemError(t *testing.T) {
	fs := newMockFS()
	fs.existsErr = errors.New("permission denied")

	checker := NewConflictChecker(fs, "/project", nil, nil, true)
	conflict := checker.CheckPath("config/container.php")
	if conflict == nil {
		t.Fatal("expected a conflict when the destination cannot be checked")
	}
	if conflict.Existing != "unknown" {
		t.Errorf("Existing = %q, want unknown", conflict.Existing)
	}
}

func TestConflictChecker_CheckPath_RelativePathHandling(t *testing.T) {
	fs := newMockFS()
	fs.exists["/project/src/App/templates/app/home-page.phtml"] = true

	checker := NewConflictChecker(fs, "/project", nil, nil, false)
	conflict := checker.CheckPath("src/App/templates/app/home-page.phtml")
	if conflict == nil || conflict.Existing != "unmanaged" {
		t.Fatalf("expected an unmanaged conflict, got %+v", conflict)
	}

	if c := checker.CheckPath("src/App/templates/app/home-page.twig"); c != nil {
		t.Errorf("unexpected conflict for a missing file: %+v", c)
	}
}

func TestConflictChecker_IsPathOwned(t *testing.T) {
	checker := NewConflictChecker(newMockFS(), "/project", []string{"config/container.php"}, nil, false)

	if !checker.IsPathOwned("config/container.php") {
		t.Error("expected config/container.php to be owned")
	}
	if checker.IsPathOwned("config/config.php") {
		t.Error("config/config.php is not written by any answer")
	}
}

func TestConflictChecker_CheckProvider(t *testing.T) {
	fs := newMockFS()
	fs.files["/project/config/config.php"] = "<?php\n" +
		"$aggregator = new ConfigAggregator([\n" +
		"    Mezzio\\Router\\AuraRouter\\ConfigProvider::class,\n" +
		"    \\Mezzio\\Router\\FastRouteRouter\\ConfigProvider::class,\n" +
		"    \\Mezzio\\ConfigProvider::class,\n" +
		"]);\n"

	tests := []struct {
		name      string
		aggregate string
		managed   []string
		reference string
		conflict  bool
	}{
		{name: "not listed", aggregate: "config/config.php", reference: `Mezzio\Twig\ConfigProvider`},
		{name: "listed by the project", aggregate: "config/config.php", reference: `Mezzio\Router\FastRouteRouter\ConfigProvider`, conflict: true},
		{name: "listed by the session", aggregate: "config/config.php", managed: []string{`Mezzio\Router\AuraRouter\ConfigProvider`}, reference: `Mezzio\Router\AuraRouter\ConfigProvider`},
		{name: "missing aggregator", aggregate: "config/other.php", reference: `Mezzio\Router\FastRouteRouter\ConfigProvider`},
		{name: "no aggregator configured", reference: `Mezzio\Router\FastRouteRouter\ConfigProvider`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewConflictChecker(fs, "/project", nil, nil, true)
			if tt.aggregate != "" {
				checker = checker.WithAggregator(tt.aggregate, tt.managed)
			}
			got := checker.CheckProvider(tt.reference)
			if (got != nil) != tt.conflict {
				t.Errorf("CheckProvider(%q) = %+v, want conflict %v", tt.reference, got, tt.conflict)
			}
		})
	}
}

package integration

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/clock"
	"github.com/geerteltink/mezzio-skeleton/internal/config"
	"github.com/geerteltink/mezzio-skeleton/internal/engine"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/hash"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

const (
	projectRoot = "/project"
	dataRoot    = "/data"
)

// testFS is a filesystem implementation that tracks files in memory for testing
type testFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newTestFS() *testFS {
	return &testFS{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

func (fs *testFS) Exists(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

// mkdirs marks path and all of its parents as directories. Callers hold mu.
func (fs *testFS) mkdirs(path string) {
	for p := filepath.Clean(path); !fs.dirs[p]; p = filepath.Dir(p) {
		fs.dirs[p] = true
	}
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirs(path)
	return nil
}

func (fs *testFS) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		return nil
	}
	if !fs.dirs[path] {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	if len(fs.children(path)) > 0 {
		return &os.PathError{Op: "remove", Path: path, Err: fmt.Errorf("directory not empty")}
	}
	delete(fs.dirs, path)
	return nil
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	fs.mkdirs(filepath.Dir(path))
	fs.files[path] = append([]byte(nil), data...)
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if content, ok := fs.files[filepath.Clean(path)]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) ReadDir(path string) ([]os.DirEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if !fs.dirs[path] {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return fs.children(path), nil
}

// children lists the direct entries of dir, sorted by name. Callers hold mu.
func (fs *testFS) children(dir string) []os.DirEntry {
	entries := []os.DirEntry{}
	for p := range fs.files {
		if filepath.Dir(p) == dir {
			entries = append(entries, iofs.FileInfoToDirEntry(&mockFileInfo{name: filepath.Base(p)}))
		}
	}
	for p := range fs.dirs {
		if p != dir && filepath.Dir(p) == dir {
			entries = append(entries, iofs.FileInfoToDirEntry(&mockFileInfo{name: filepath.Base(p), isDir: true}))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries
}

func (fs *testFS) PruneEmptyDirs(dir, stop string) error {
	dir = filepath.Clean(dir)
	stop = filepath.Clean(stop)
	if dir != stop && !strings.HasPrefix(dir, stop+string(filepath.Separator)) {
		return fmt.Errorf("refusing to prune %q outside of %q", dir, stop)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for ; dir != stop; dir = filepath.Dir(dir) {
		if !fs.dirs[dir] {
			continue
		}
		if len(fs.children(dir)) > 0 {
			return nil
		}
		delete(fs.dirs, dir)
	}
	return nil
}

func (fs *testFS) ValidateRelPath(relPath string) error {
	return fsops.NewRealFS().ValidateRelPath(relPath)
}

func (fs *testFS) ValidateIdentifier(id string) error {
	return fsops.NewRealFS().ValidateIdentifier(id)
}

// tree returns every file under root keyed by its slash-separated relative path.
func (fs *testFS) tree(root string) map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make(map[string]string)
	for p, content := range fs.files {
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		out[filepath.ToSlash(rel)] = string(content)
	}
	return out
}

// dirsUnder returns the directories below root, sorted.
func (fs *testFS) dirsUnder(root string) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := []string{}
	for p := range fs.dirs {
		if strings.HasPrefix(p, root+"/") {
			out = append(out, strings.TrimPrefix(p, root+"/"))
		}
	}
	sort.Strings(out)
	return out
}

func (fs *testFS) file(t *testing.T, rel string) string {
	t.Helper()
	data, err := fs.ReadFile(filepath.Join(projectRoot, rel))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

// mockFileInfo implements os.FileInfo
type mockFileInfo struct {
	name  string
	isDir bool
}

func (m *mockFileInfo) Name() string { return m.name }
func (m *mockFileInfo) Size() int64  { return 0 }
func (m *mockFileInfo) Mode() os.FileMode {
	if m.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// setupTestEngine creates an engine whose project tree and session records
// both live in a testFS.
func setupTestEngine(t *testing.T) (*engine.Engine, *testFS, *state.FileStateStore) {
	t.Helper()

	fs := newTestFS()
	paths := config.PathsAt(dataRoot)
	stateStore := state.NewFileStateStore(fs, paths.Sessions)
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	eng := engine.New(
		catalog.MustDefault(),
		stateStore,
		fs,
		hash.NewSHA256Hasher(),
		clk,
		nil,
		*paths,
	)
	return eng, fs, stateStore
}

// initProject seeds the skeleton into projectRoot and opens its session.
func initProject(t *testing.T, eng *engine.Engine) *engine.InitResult {
	t.Helper()
	result, err := eng.Init(context.Background(), &engine.InitRequest{Root: projectRoot})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return result
}

type step struct {
	question catalog.QuestionID
	code     string
}

func answerAll(t *testing.T, eng *engine.Engine, steps ...step) {
	t.Helper()
	for _, s := range steps {
		_, err := eng.ProcessAnswer(context.Background(), &engine.AnswerRequest{
			Root:     projectRoot,
			Question: s.question,
			Code:     s.code,
		})
		if err != nil {
			t.Fatalf("ProcessAnswer(%s, %q) error = %v", s.question, s.code, err)
		}
	}
}

func provider(t *testing.T, q catalog.QuestionID, code string) string {
	t.Helper()
	question, err := catalog.MustDefault().Question(q)
	if err != nil {
		t.Fatalf("Question(%s) error = %v", q, err)
	}
	opt, ok := question.Option(code)
	if !ok {
		t.Fatalf("%s has no option %q", q, code)
	}
	return opt.Provider
}

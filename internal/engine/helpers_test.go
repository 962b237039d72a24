package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/clock"
	"github.com/geerteltink/mezzio-skeleton/internal/config"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/hash"
	"github.com/geerteltink/mezzio-skeleton/internal/lock"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

var testEpoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// testEnv is an engine over a temporary data root.
type testEnv struct {
	engine *Engine
	paths  *config.Paths
	fs     fsops.FS
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, config.PathsAt(t.TempDir()), fsops.NewRealFS())
}

// newTestEnvAt builds an engine over an existing data root. fs is used for
// project files only; session records always go to the real filesystem.
func newTestEnvAt(t *testing.T, paths *config.Paths, fs fsops.FS) *testEnv {
	t.Helper()
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	eng := New(
		catalog.MustDefault(),
		state.NewFileStateStore(fsops.NewRealFS(), paths.Sessions),
		fs,
		hash.NewSHA256Hasher(),
		clock.NewSteppingClock(testEpoch, time.Second),
		lock.NewSessionLock(paths.Locks),
		*paths,
	)
	return &testEnv{engine: eng, paths: paths, fs: fs}
}

// newProject initializes a session for a fresh project and returns its root.
func (env *testEnv) newProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "app")
	if _, err := env.engine.Init(context.Background(), &InitRequest{Root: root}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return root
}

func (env *testEnv) answer(t *testing.T, root string, q catalog.QuestionID, code string) *AnswerResult {
	t.Helper()
	result, err := env.engine.ProcessAnswer(context.Background(), &AnswerRequest{Root: root, Question: q, Code: code})
	if err != nil {
		t.Fatalf("ProcessAnswer(%s, %q) failed: %v", q, code, err)
	}
	return result
}

func (env *testEnv) tryAnswer(root string, q catalog.QuestionID, code string) error {
	_, err := env.engine.ProcessAnswer(context.Background(), &AnswerRequest{Root: root, Question: q, Code: code})
	return err
}

func (env *testEnv) status(t *testing.T, root string) *StatusResult {
	t.Helper()
	st, err := env.engine.Status(context.Background(), &StatusRequest{Root: root})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	return st
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func fileExists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// snapshot reads every regular file under root.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	return files
}

func assertSnapshot(t *testing.T, root string, want map[string]string) {
	t.Helper()
	got := snapshot(t, root)
	for rel, content := range want {
		g, ok := got[rel]
		if !ok {
			t.Errorf("%s is missing", rel)
			continue
		}
		if g != content {
			t.Errorf("%s changed:\n%s", rel, g)
		}
	}
	for rel := range got {
		if _, ok := want[rel]; !ok {
			t.Errorf("unexpected file %s", rel)
		}
	}
}

// providerLines counts the aggregator lines for reference.
func providerLines(t *testing.T, root, reference string) int {
	t.Helper()
	return strings.Count(readFile(t, root, "config/config.php"), aggregator.Line(reference)+"\n")
}

func option(t *testing.T, q catalog.QuestionID, code string) catalog.Option {
	t.Helper()
	question, err := catalog.MustDefault().Question(q)
	if err != nil {
		t.Fatalf("Question(%s) failed: %v", q, err)
	}
	opt, ok := question.Option(code)
	if !ok {
		t.Fatalf("%s has no option %q", q, code)
	}
	return opt
}

var errInjected = errors.New("injected failure")

// failingFS fails AtomicWrite for paths with the given suffix once armed.
type failingFS struct {
	fsops.FS

	mu     sync.Mutex
	suffix string
	armed  bool
}

func (f *failingFS) arm(suffix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suffix, f.armed = suffix, true
}

func (f *failingFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	fail := f.armed && strings.HasSuffix(filepath.ToSlash(path), f.suffix)
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.FS.AtomicWrite(path, data, perm)
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/clock"
	"github.com/geerteltink/mezzio-skeleton/internal/config"
	"github.com/geerteltink/mezzio-skeleton/internal/engine"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/hash"
	"github.com/geerteltink/mezzio-skeleton/internal/lock"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, *config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := settings.Paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, nil, err
	}

	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}
	stateStore := state.NewFileStateStore(fs, settings.Paths.Sessions)

	return engine.New(cat, stateStore, fs, hasher, clk, newLocker(settings, clk), settings.Paths), settings, nil
}

// newLocker returns the session lock for the configured data root. Lock
// files are stamped with the engine's clock.
func newLocker(settings *config.Settings, clk clock.Clock) lock.SessionLock {
	locker := lock.NewSessionLock(settings.Paths.Locks)
	locker.StaleAfter = settings.LockStaleAfter
	locker.Now = clock.Func(clk)
	return locker
}

// holderHint describes the process holding a session lock.
func holderHint(info *lock.LockInfo) string {
	if info == nil {
		return "another installer"
	}
	hint := fmt.Sprintf("pid %d", info.PID)
	if info.Cmd != "" {
		hint += fmt.Sprintf(" (%s)", info.Cmd)
	}
	return hint + " since " + info.CreatedAt.Local().Format(time.RFC1123)
}

// projectRoot returns the --root flag or the current directory.
func projectRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain adds a hint to errors that need more than a retry.
func explain(err error) error {
	var locked *lock.ErrLocked
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrSessionBroken):
		return fmt.Errorf("%w\nrun 'mezzio-installer reset' to discard the session", err)
	case errors.As(err, &locked):
		return fmt.Errorf("%w\nheld by %s; retry when it finishes or remove %s if it is gone",
			err, holderHint(locked.Info), locked.Path)
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Errorf("%w\nrun 'mezzio-installer init' first", err)
	case errors.Is(err, engine.ErrIOFailure),
		errors.Is(err, engine.ErrStateDrift),
		errors.Is(err, engine.ErrDuplicateInsertion):
		return fmt.Errorf("%w\nthe project may be inconsistent; check 'mezzio-installer status'", err)
	}
	return err
}

// questionArg parses a question id argument.
func questionArg(cat *catalog.Catalog, arg string) (catalog.QuestionID, error) {
	id := catalog.QuestionID(arg)
	if _, err := cat.Question(id); err != nil {
		ids := make([]string, 0)
		for _, q := range cat.Questions() {
			ids = append(ids, string(q.ID))
		}
		return "", fmt.Errorf("%w (questions: %v)", err, ids)
	}
	return id, nil
}

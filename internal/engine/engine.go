// Package engine provides the core business logic of the installer.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It coordinates session state, answer validation,
// planning, and the edits made to a project tree.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Init/Reset: Session creation and disposal
//   - ProcessAnswer: Validate, undo the previous answer, apply, persist
//   - Status/Options/Finalize: Session inspection and completion
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/clock"
	"github.com/geerteltink/mezzio-skeleton/internal/config"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/hash"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// Locker serializes sessions across processes.
type Locker interface {
	// Acquire blocks until the session lock is held or ctx is done.
	Acquire(ctx context.Context, sessionID, cmd string) (unlock func() error, err error)
}

// Engine orchestrates all installer operations.
// It is the main API surface called by the CLI.
type Engine struct {
	catalog     *catalog.Catalog
	stateStore  state.StateStore
	fs          fsops.FS
	hasher      hash.Hasher
	clock       clock.Clock
	locker      Locker
	configPaths config.Paths

	mu       sync.Mutex
	sessions map[string]*sessionGate
}

// sessionGate admits one operation per session within this process. It is
// dropped from Engine.sessions once nobody holds or waits on it.
type sessionGate struct {
	slot chan struct{}
	refs int
}

// New creates a new Engine with the given dependencies.
func New(
	cat *catalog.Catalog,
	stateStore state.StateStore,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	locker Locker,
	paths config.Paths,
) *Engine {
	return &Engine{
		catalog:     cat,
		stateStore:  stateStore,
		fs:          fs,
		hasher:      hasher,
		clock:       clk,
		locker:      locker,
		configPaths: paths,
		sessions:    make(map[string]*sessionGate),
	}
}

// Catalog returns the option catalog the engine validates against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Session returns a handle that drives the session of one project root.
func (e *Engine) Session(root string) *Session {
	return &Session{engine: e, root: root}
}

// resolveRoot returns the clean absolute project root and its session ID.
func (e *Engine) resolveRoot(root string) (string, string, error) {
	if root == "" {
		return "", "", fmt.Errorf("%w: project root is required", ErrValidation)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	abs = filepath.Clean(abs)
	return abs, state.ComputeSessionID(abs), nil
}

// lockSession serializes operations on one session: first within this
// process, then across processes via the lock file. Both waits end when ctx
// is done.
func (e *Engine) lockSession(ctx context.Context, sessionID, cmd string) (func(), error) {
	e.mu.Lock()
	g, ok := e.sessions[sessionID]
	if !ok {
		g = &sessionGate{slot: make(chan struct{}, 1)}
		e.sessions[sessionID] = g
	}
	g.refs++
	e.mu.Unlock()

	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		e.leaveGate(sessionID, g)
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		<-g.slot
		e.leaveGate(sessionID, g)
		return nil, err
	}

	var release func() error
	if e.locker != nil {
		unlock, err := e.locker.Acquire(ctx, sessionID, cmd)
		if err != nil {
			<-g.slot
			e.leaveGate(sessionID, g)
			return nil, err
		}
		release = unlock
	}

	return func() {
		if release != nil {
			_ = release()
		}
		<-g.slot
		e.leaveGate(sessionID, g)
	}, nil
}

func (e *Engine) leaveGate(sessionID string, g *sessionGate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g.refs--
	if g.refs == 0 {
		delete(e.sessions, sessionID)
	}
}

// loadSession loads the session for a project root.
func (e *Engine) loadSession(sessionID string) (*state.SessionState, error) {
	st, err := e.stateStore.LoadSession(sessionID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no install session for this project (run init first)", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	if st.CatalogVersion != e.catalog.Version() {
		return nil, fmt.Errorf("%w: session was created with catalog version %d, installer has version %d",
			ErrValidation, st.CatalogVersion, e.catalog.Version())
	}
	return st, nil
}

// loadActiveSession loads a session that may still accept answers.
func (e *Engine) loadActiveSession(sessionID string) (*state.SessionState, error) {
	st, err := e.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if st.Broken {
		return nil, fmt.Errorf("%w: %s", ErrSessionBroken, st.BrokenReason)
	}
	if st.Phase == state.PhaseFinalized {
		return nil, ErrFinalized
	}
	return st, nil
}

// saveSession stamps and persists the session.
func (e *Engine) saveSession(sessionID string, st *state.SessionState) error {
	st.UpdatedAt = e.clock.Now()
	if err := e.stateStore.SaveSession(sessionID, st); err != nil {
		return fmt.Errorf("%w: failed to save session state: %v", ErrIOFailure, err)
	}
	return nil
}

// markBroken records a session-fatal error. The returned error wraps cause;
// a failure to persist the flag is appended rather than replacing it.
func (e *Engine) markBroken(sessionID string, st *state.SessionState, cause error) error {
	st.Broken = true
	st.BrokenReason = cause.Error()
	if err := e.saveSession(sessionID, st); err != nil {
		return fmt.Errorf("%w (and failed to mark session broken: %v)", cause, err)
	}
	return cause
}

// answers converts recorded answers to the planner's form.
func answers(st *state.SessionState) map[catalog.QuestionID]string {
	out := make(map[catalog.QuestionID]string, len(st.Answers))
	for _, a := range st.Answers {
		out[catalog.QuestionID(a.Question)] = a.Code
	}
	return out
}

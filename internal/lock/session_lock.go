// Package lock provides a cross-process lock per install session.
//
// Two installer processes driving the same project root must not interleave
// their edits. The lock is a file created with O_EXCL under the data root;
// a lock whose owner died, or that is older than StaleAfter, is broken and
// re-acquired.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockInfo contains the metadata stored in a lock file.
type LockInfo struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Cmd       string    `json:"cmd,omitempty"`
}

// ErrLocked indicates a non-stale lock is held by someone else.
type ErrLocked struct {
	SessionID string
	Info      *LockInfo // nil if lock file is unreadable
	Path      string
}

func (e *ErrLocked) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("session %s is locked by pid %d since %s (lock file: %s)",
			short(e.SessionID), e.Info.PID, e.Info.CreatedAt.Format(time.RFC3339), e.Path)
	}
	return fmt.Sprintf("session %s is locked (lock file: %s)", short(e.SessionID), e.Path)
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// SessionLock hands out per-session lock files.
type SessionLock struct {
	Dir           string
	StaleAfter    time.Duration
	RetryInterval time.Duration
	Now           func() time.Time
	IsPIDAlive    func(pid int) bool
}

// NewSessionLock returns a SessionLock with defaults:
// - StaleAfter: 2h
// - RetryInterval: 50ms
// - Now: time.Now
// - IsPIDAlive: signal 0 probe
func NewSessionLock(dir string) SessionLock {
	return SessionLock{
		Dir:           dir,
		StaleAfter:    2 * time.Hour,
		RetryInterval: 50 * time.Millisecond,
		Now:           time.Now,
		IsPIDAlive:    isPIDAlive,
	}
}

func (l SessionLock) lockPath(sessionID string) string {
	return filepath.Join(l.Dir, sessionID+".lock")
}

// Acquire blocks until the session lock is held or ctx is done.
// While another live process holds the lock it polls every RetryInterval.
// When ctx ends first the last *ErrLocked is returned, wrapped with ctx.Err().
func (l SessionLock) Acquire(ctx context.Context, sessionID, cmd string) (unlock func() error, err error) {
	interval := l.RetryInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	for {
		unlock, err := l.TryLock(sessionID, cmd)
		if err == nil {
			return unlock, nil
		}
		var locked *ErrLocked
		if !errors.As(err, &locked) {
			return nil, err
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}

// TryLock acquires the session lock and returns an unlock function.
// If the lock is held and not stale it returns *ErrLocked without waiting.
func (l SessionLock) TryLock(sessionID, cmd string) (unlock func() error, err error) {
	lockPath := l.lockPath(sessionID)
	maxRetries := 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := os.MkdirAll(l.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}

		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			info := LockInfo{
				PID:       os.Getpid(),
				CreatedAt: l.Now(),
				Cmd:       cmd,
			}
			data, _ := json.Marshal(info)
			if _, writeErr := f.Write(data); writeErr != nil {
				f.Close()
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file: %w", writeErr)
			}
			if closeErr := f.Close(); closeErr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to close lock file: %w", closeErr)
			}

			return func() error {
				err := os.Remove(lockPath)
				if err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, readErr := l.readLockInfo(lockPath)
		if readErr != nil {
			// Unreadable lock: fall back to mtime. A writer that is still
			// filling in the file looks the same, so only age breaks it.
			stat, statErr := os.Stat(lockPath)
			if statErr != nil {
				if os.IsNotExist(statErr) {
					continue
				}
				return nil, &ErrLocked{SessionID: sessionID, Path: lockPath}
			}
			if l.Now().Sub(stat.ModTime()) <= l.StaleAfter {
				return nil, &ErrLocked{SessionID: sessionID, Path: lockPath}
			}
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{SessionID: sessionID, Path: lockPath}
			}
			continue
		}

		if l.isStale(info) {
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{SessionID: sessionID, Info: info, Path: lockPath}
			}
			continue
		}

		return nil, &ErrLocked{SessionID: sessionID, Info: info, Path: lockPath}
	}

	return nil, &ErrLocked{SessionID: sessionID, Path: lockPath}
}

// Holder returns the lock info of the current holder, or nil if unlocked.
func (l SessionLock) Holder(sessionID string) (*LockInfo, error) {
	info, err := l.readLockInfo(l.lockPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

func (l SessionLock) readLockInfo(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// isStale returns true if the lock should be considered stale.
func (l SessionLock) isStale(info *LockInfo) bool {
	if !l.IsPIDAlive(info.PID) {
		return true
	}
	return l.Now().Sub(info.CreatedAt) > l.StaleAfter
}

// isPIDAlive checks if a process with the given pid is alive.
// Signal 0 succeeds if the process exists and we may signal it.
func isPIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM: exists, owned by someone else
	return errors.Is(err, syscall.EPERM)
}

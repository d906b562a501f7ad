// Package lock serializes turns against a single session across seance
// processes.
//
// The capture/classify/send cycle is not atomic: a watcher process and an
// interactive invocation targeting the same session can interleave their
// sends and corrupt each other's turns. Each session therefore has an
// advisory file lock that a process holds for the duration of a turn.
// Advisory is enough — every writer is seance, and the kernel releases the
// lock when a holder dies, so there is no stale-lock cleanup to get wrong.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrBusy means another seance process holds the session's lock.
var ErrBusy = errors.New("session is in use by another seance process")

// retryDelay is how often a blocked Acquire re-attempts the lock.
const retryDelay = 100 * time.Millisecond

// swapped in tests
var userHomeDir = os.UserHomeDir

// SessionLock is an advisory lock scoped to one session name.
type SessionLock struct {
	fl   *flock.Flock
	path string
}

// ForSession returns the lock for a session, creating the lock directory
// if needed. The lock is not yet held.
func ForSession(session string) (*SessionLock, error) {
	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating lock dir: %w", err)
	}
	dir := filepath.Join(home, ".seance", "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	path := filepath.Join(dir, session+".lock")
	return &SessionLock{fl: flock.New(path), path: path}, nil
}

// Path returns the lock file location, for diagnostics.
func (l *SessionLock) Path() string { return l.path }

// Acquire blocks until the lock is held or the timeout passes, in which
// case it returns ErrBusy.
func (l *SessionLock) Acquire(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	locked, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("locking %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrBusy, l.path)
	}
	return nil
}

// TryAcquire attempts the lock without waiting.
func (l *SessionLock) TryAcquire() (bool, error) {
	return l.fl.TryLock()
}

// Release drops the lock. Safe to call when not held.
func (l *SessionLock) Release() error {
	return l.fl.Unlock()
}

// ProcessAlive reports whether a PID refers to a live process. EPERM still
// means alive — the probe signal was refused, not undeliverable.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

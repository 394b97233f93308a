// Package lock provides the exclusive, cross-process file lock the
// watcher and server each hold for their own lifetime, preventing two
// instances of the same process from running against one notes directory
// at once.
package lock

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/danimelchor/mindmap-go/internal/errs"
)

// Lock is an exclusive file lock backed by gofrs/flock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// New returns a Lock for the given path. The lock isn't acquired yet.
func New(path string) *Lock {
	return &Lock{path: path, flock: flock.New(path)}
}

// Path returns the lock file's path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, trying non-blocking first so the caller can
// report contention before falling back to a blocking wait. notice, if
// non-nil, receives a one-line message when the lock is already held by
// another process.
func (l *Lock) Acquire(notice io.Writer) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.KindLock, "failed to create lock directory", err)
		}
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return errs.Wrap(errs.KindLock, "failed to try-acquire lock", err)
	}
	if acquired {
		return nil
	}

	if notice != nil {
		fmt.Fprintf(notice, "another process holds %s, waiting for it to exit...\n", l.path)
	}

	if err := l.flock.Lock(); err != nil {
		return errs.Wrap(errs.KindLock, "failed to acquire lock", err)
	}
	return nil
}

// Release drops the lock. Safe to call even if Acquire was never called or
// already failed.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return errs.Wrap(errs.KindLock, "failed to release lock", err)
	}
	return nil
}

// ReleaseOnSignal installs a SIGINT/SIGTERM handler that releases the
// lock and exits with status 0. It returns a stop func that cancels the
// handler without exiting, for use in tests or graceful non-signal
// shutdown paths.
func ReleaseOnSignal(l *Lock) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			_ = l.Release()
			os.Exit(0)
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(ch)
	}
}

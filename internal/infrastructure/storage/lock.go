package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"BeautyBot/internal/ports"
)

// FileLock is an advisory lock file guarding the pipeline's
// load-to-commit critical section against overlapping scheduler
// invocations. Locks older than staleAfter are treated as leftovers
// from a crashed run and taken over.
type FileLock struct {
	path       string
	staleAfter time.Duration
}

var _ ports.RunLock = (*FileLock)(nil)

// NewFileLock wires the lock path; staleAfter <= 0 defaults to one hour.
func NewFileLock(path string, staleAfter time.Duration) *FileLock {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &FileLock{path: path, staleAfter: staleAfter}
}

// Acquire creates the lock file exclusively. It returns ErrLockHeld
// when a live lock exists, and a release func that removes the file.
func (l *FileLock) Acquire(_ context.Context) (func(), error) {
	if err := l.tryCreate(); err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock %s: %w", l.path, err)
		}

		info, statErr := os.Stat(l.path)
		if statErr != nil || time.Since(info.ModTime()) < l.staleAfter {
			return nil, ports.ErrLockHeld
		}

		// Stale lock from a crashed run; take it over.
		_ = os.Remove(l.path)
		if err := l.tryCreate(); err != nil {
			if os.IsExist(err) {
				return nil, ports.ErrLockHeld
			}
			return nil, fmt.Errorf("create lock %s: %w", l.path, err)
		}
	}

	release := func() { _ = os.Remove(l.path) }
	return release, nil
}

func (l *FileLock) tryCreate() error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, _ = file.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	return file.Close()
}

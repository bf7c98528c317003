// SPDX-License-Identifier: MPL-2.0

// Package lock provides the exclusive run lock. Provisioning is strictly
// sequential; the flock makes that explicit instead of relying on nobody
// starting two runs at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process already holds the run lock.
var ErrHeld = errors.New("another provisioning run is in progress")

// RunLock is a cross-process exclusive lock backed by flock(2) on a file
// in the tool's state directory.
type RunLock struct {
	path string
	fl   *flock.Flock
}

// New creates a RunLock at path. The parent directory is created lazily
// on Acquire.
func New(path string) *RunLock {
	return &RunLock{path: path}
}

// Path returns the lock file path (reported in the "lock held" error so a
// stale lock can be cleaned up by hand).
func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock without blocking. It returns a release function
// on success and ErrHeld (wrapped with the lock path) when the lock is
// already taken.
func (l *RunLock) Acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", l.path, ErrHeld)
	}
	l.fl = fl

	return func() {
		if l.fl != nil {
			_ = l.fl.Unlock()
			l.fl = nil
		}
	}, nil
}

// Package workspace manages the ephemeral scratch directory that holds
// intermediate bundle artifacts during a build run.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/runnerforge/internal/logfields"
)

// Scratch is a single-run ephemeral build directory. Exactly one Scratch may
// be live per run; callers must serialize runs sharing the same path.
type Scratch struct {
	dir string
}

// New returns a Scratch rooted at dir. When dir is empty a directory under
// the system temp root is used.
func New(dir string) *Scratch {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "runnerforge-scratch")
	}
	return &Scratch{dir: dir}
}

// Acquire removes any pre-existing workspace directory and creates it fresh.
// A stale directory from a crashed run is deleted silently; acquire is
// idempotent and safe at the start of every run.
func (s *Scratch) Acquire() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to clear stale workspace: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Debug("Acquired scratch workspace", logfields.Path(s.dir))
	return nil
}

// Release removes the workspace directory. Safe to call when the directory
// does not exist; runs on every exit path of a build.
func (s *Scratch) Release() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to release workspace: %w", err)
	}
	slog.Debug("Released scratch workspace", logfields.Path(s.dir))
	return nil
}

// Path returns the workspace directory path.
func (s *Scratch) Path() string {
	return s.dir
}

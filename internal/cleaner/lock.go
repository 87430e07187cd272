package cleaner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Latias94/purger/pkg/models"
	"github.com/gofrs/flock"
)

// lockDir returns the directory holding per-project lock files
func (e *Engine) lockDir() string {
	if e.cfg.LockDir != "" {
		return e.cfg.LockDir
	}
	return filepath.Join(os.TempDir(), "purger-locks")
}

// lockProject takes a non-blocking advisory lock for the project path.
// Two cleans of the same project, in this process or another, never overlap.
func (e *Engine) lockProject(p models.Project) (func(), error) {
	dir := e.lockDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, pathHash(p.Path, 16)+".lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", p.Path, ErrProjectLocked)
	}

	return func() { _ = fl.Unlock() }, nil
}

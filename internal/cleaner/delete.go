package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Latias94/purger/internal/filesystem"
	"github.com/Latias94/purger/internal/project"
	"github.com/Latias94/purger/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// deleteChunkSize is the number of files fanned out between cancellation checks
	deleteChunkSize = 1024

	// progressInterval throttles Cleaning events during native deletion
	progressInterval = 120 * time.Millisecond
)

// deleteNative removes the target with the native backend
func (e *Engine) deleteNative(g guard, p models.Project, target string, em emitter) (int64, error) {
	if g.cancellable() || e.cfg.KeepExecutable {
		return e.deleteTree(g, p, target, em)
	}

	size := project.TargetSize(g.ctx, p)
	if err := os.RemoveAll(target); err != nil {
		e.logger.Debug("Bulk removal failed, retrying file by file",
			zap.String("path", target),
			zap.Error(err))
		return e.deleteTree(g, p, target, em)
	}
	return size, nil
}

// deleteBulk removes the target with the platform remove command and falls
// back to the native tree walk when the command fails
func (e *Engine) deleteBulk(g guard, p models.Project, target string, em emitter) (int64, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	if strings.ContainsRune(target, '"') {
		return e.deleteTree(g, p, target, em)
	}

	size := project.TargetSize(g.ctx, p)
	out, err := runCommand(g, filesystem.BulkRemoveCommand(target), p.Path, func(elapsed time.Duration) {
		em.send(models.CleanProgress{
			CurrentFile: fmt.Sprintf("%s (%.1fs)", filepath.Base(target), elapsed.Seconds()),
			Phase:       models.PhaseCleaning,
		})
	})
	if err == nil {
		e.logger.Debug("Platform remove finished",
			append([]zap.Field{zap.String("project", p.Name)}, out.fields()...)...)
		return size, nil
	}

	var timeoutErr *TimeoutError
	if errors.Is(err, ErrCancelled) || errors.As(err, &timeoutErr) {
		return 0, err
	}

	e.logger.Warn("Platform remove failed, falling back to native deletion",
		zap.String("project", p.Name),
		zap.Error(err))
	return e.deleteTree(g, p, target, em)
}

// deleteTree removes files first and directories deepest first, checking the
// guard between entries. Freed bytes are the known target size, or the sum of
// deleted file sizes when the size is unknown.
func (e *Engine) deleteTree(g guard, p models.Project, target string, em emitter) (int64, error) {
	track := p.TargetSize <= 0
	var freed atomic.Int64
	if !track {
		freed.Store(p.TargetSize)
	}

	var files, dirs []string
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if cerr := g.check(); cerr != nil {
			return cerr
		}
		if err != nil {
			return fmt.Errorf("failed to walk target: %w", err)
		}
		if path == target {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removeFile := func(path string) error {
		if err := g.check(); err != nil {
			return err
		}
		var size int64
		if track {
			if info, err := os.Lstat(path); err == nil {
				size = info.Size()
			}
		}
		if err := removeWithRetry(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		if track {
			freed.Add(size)
		}
		return nil
	}

	report := throttle{interval: progressInterval}
	processed := 0

	if e.cfg.Parallel && g.cancellable() {
		total := len(files)
		for start := 0; start < total; start += deleteChunkSize {
			if err := g.check(); err != nil {
				return 0, err
			}
			chunk := files[start:min(start+deleteChunkSize, total)]

			var eg errgroup.Group
			eg.SetLimit(e.workers())
			for _, path := range chunk {
				eg.Go(func() error { return removeFile(path) })
			}
			if err := eg.Wait(); err != nil {
				return 0, err
			}

			processed += len(chunk)
			if report.ready() {
				em.send(models.CleanProgress{
					CurrentFile:    filepath.Base(chunk[len(chunk)-1]),
					FilesProcessed: processed,
					TotalFiles:     total,
					Phase:          models.PhaseCleaning,
				})
			}
		}
	} else {
		for _, path := range files {
			if err := removeFile(path); err != nil {
				return 0, err
			}
			processed++
			if report.ready() {
				em.send(models.CleanProgress{
					CurrentFile:    filepath.Base(path),
					FilesProcessed: processed,
					Phase:          models.PhaseCleaning,
				})
			}
		}
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return pathDepth(dirs[i]) > pathDepth(dirs[j])
	})
	for _, dir := range dirs {
		if err := g.check(); err != nil {
			return 0, err
		}
		_ = removeDir(dir)
	}

	if err := g.check(); err != nil {
		return 0, err
	}
	if err := removeDir(target); err != nil {
		return 0, fmt.Errorf("failed to delete target root %s: %w", target, err)
	}

	return freed.Load(), nil
}

// Replaced in tests
var (
	removeFile           = os.Remove
	clearWriteProtection = filesystem.ClearWriteProtection
)

// removeWithRetry removes one entry. A permission failure clears write
// protection once and retries; a second failure is returned.
func removeWithRetry(path string) error {
	err := removeFile(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return err
	}

	_ = clearWriteProtection(path)
	if err := removeFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// removeDir removes a directory, falling back to a recursive removal for
// leftovers that appeared after the walk
func removeDir(path string) error {
	if err := removeWithRetry(path); err == nil {
		return nil
	}
	return os.RemoveAll(path)
}

func pathDepth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

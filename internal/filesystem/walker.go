package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/Latias94/purger/pkg/models"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ignoreFiles are read in every visited directory when ignore files are respected
var ignoreFiles = []string{".gitignore", ".ignore"}

// WalkOptions controls traversal
type WalkOptions struct {
	MaxDepth           int // 0 = unlimited; children of the root are at depth 1
	FollowLinks        bool
	RespectIgnoreFiles bool
	IgnoreHidden       bool
	Workers            int // parallel walk pool size, 0 = min(NumCPU, 8)
}

// WalkFunc is called for every entry below the root. Returning filepath.SkipDir
// for a directory prevents descending into it; any other error stops the walk.
type WalkFunc func(*models.FileInfo) error

// Walker walks the filesystem and reports entries to a callback
type Walker struct {
	opts   WalkOptions
	logger *zap.Logger

	mu      sync.Mutex
	visited map[string]struct{}
}

// NewWalker creates a new filesystem walker
func NewWalker(opts WalkOptions, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWalkWorkers()
	}
	return &Walker{
		opts:   opts,
		logger: logger,
	}
}

// DefaultWalkWorkers returns the parallel walk pool size
func DefaultWalkWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}

// dirTask is one directory pending a visit
type dirTask struct {
	path     string
	rel      []string // path components relative to the root
	depth    int      // root = 0
	patterns []gitignore.Pattern
}

// Walk walks the tree below root sequentially in lexical order.
// A cancelled context stops the walk without an error.
func (w *Walker) Walk(ctx context.Context, root string, fn WalkFunc) error {
	if err := checkRoot(root); err != nil {
		return err
	}
	w.resetVisited(root)

	var walk func(task dirTask) error
	walk = func(task dirTask) error {
		children, err := w.readDir(ctx, task, fn)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	err := walk(dirTask{path: root})
	if isContextErr(err) {
		return nil
	}
	return err
}

// WalkParallel walks the tree below root using a bounded pool of readers.
// fn may be called concurrently. The visiting order is unspecified.
// A cancelled context stops the walk without an error.
func (w *Walker) WalkParallel(ctx context.Context, root string, fn WalkFunc) error {
	if err := checkRoot(root); err != nil {
		return err
	}
	w.resetVisited(root)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(w.opts.Workers))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	var visit func(task dirTask)
	visit = func(task dirTask) {
		defer wg.Done()

		// The semaphore only guards the directory read so nested visits cannot starve
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		children, err := w.readDir(ctx, task, fn)
		sem.Release(1)

		if err != nil {
			if !isContextErr(err) {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
			return
		}

		for _, child := range children {
			wg.Add(1)
			go visit(child)
		}
	}

	wg.Add(1)
	visit(dirTask{path: root})
	wg.Wait()

	return firstErr
}

// readDir reports the entries of one directory to fn and returns the
// subdirectories that should be visited next
func (w *Walker) readDir(ctx context.Context, task dirTask, fn WalkFunc) ([]dirTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(task.path)
	if err != nil {
		w.logger.Warn("Error accessing path", zap.String("path", task.path), zap.Error(err))
		return nil, nil // Continue walking
	}

	patterns := task.patterns
	if w.opts.RespectIgnoreFiles {
		patterns = w.loadIgnorePatterns(task.path, task.rel, patterns)
	}
	var matcher gitignore.Matcher
	if len(patterns) > 0 {
		matcher = gitignore.NewMatcher(patterns)
	}

	depth := task.depth + 1
	var children []dirTask

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		path := filepath.Join(task.path, name)
		hidden := isHidden(name) || isHiddenAttr(path)
		if hidden && w.opts.IgnoreHidden {
			continue
		}

		isSymlink := entry.Type()&os.ModeSymlink != 0
		isDir := entry.IsDir()
		if isSymlink && w.opts.FollowLinks {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}

		rel := append(append(make([]string, 0, len(task.rel)+1), task.rel...), name)
		if matcher != nil && matcher.Match(rel, isDir) {
			w.logger.Debug("Skipping ignored entry", zap.String("path", path))
			continue
		}

		info := &models.FileInfo{
			Path:      path,
			Name:      name,
			Depth:     depth,
			IsDir:     isDir,
			IsSymlink: isSymlink,
			IsHidden:  hidden,
		}

		if err := fn(info); err != nil {
			if errors.Is(err, filepath.SkipDir) {
				continue
			}
			return nil, err
		}

		if !isDir {
			continue
		}
		if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
			continue
		}
		if isSymlink && !w.firstVisit(path) {
			w.logger.Debug("Skipping symlink cycle", zap.String("path", path))
			continue
		}

		children = append(children, dirTask{
			path:     path,
			rel:      rel,
			depth:    depth,
			patterns: patterns,
		})
	}

	return children, nil
}

// loadIgnorePatterns appends the patterns of the ignore files found in dir.
// The returned slice never aliases parent.
func (w *Walker) loadIgnorePatterns(dir string, domain []string, parent []gitignore.Pattern) []gitignore.Pattern {
	var local []gitignore.Pattern
	for _, name := range ignoreFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			local = append(local, gitignore.ParsePattern(line, domain))
		}
		f.Close()
	}
	if len(local) == 0 {
		return parent
	}
	out := make([]gitignore.Pattern, 0, len(parent)+len(local))
	out = append(out, parent...)
	return append(out, local...)
}

// firstVisit records the real path of a followed directory link and reports
// whether it was new
func (w *Walker) firstVisit(path string) bool {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, seen := w.visited[real]; seen {
		return false
	}
	w.visited[real] = struct{}{}
	return true
}

func (w *Walker) resetVisited(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visited = make(map[string]struct{})
	if real, err := filepath.EvalSymlinks(root); err == nil {
		w.visited[real] = struct{}{}
	}
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isHidden checks if a file name is a dot entry
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

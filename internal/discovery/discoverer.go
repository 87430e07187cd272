// Package discovery finds projects below a root directory
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/filesystem"
	"github.com/Latias94/purger/internal/project"
	"github.com/Latias94/purger/pkg/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportEvery is how many descriptor finds pass between progress callbacks
const ReportEvery = 50

// FoundFunc receives the running count of descriptor files found
type FoundFunc func(count int)

// Discoverer walks directory trees and resolves projects through a cache
type Discoverer struct {
	cfg       config.DiscoveryConfig
	toolchain config.Toolchain
	loader    *project.Loader
	walker    *filesystem.Walker
	cache     *lru.Cache[string, models.Project]
	logger    *zap.Logger
}

// NewDiscoverer creates a discoverer for one toolchain
func NewDiscoverer(cfg config.DiscoveryConfig, toolchain config.Toolchain, logger *zap.Logger) (*Discoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = config.DefaultDiscoveryConfig().CacheSize
	}
	cache, err := lru.New[string, models.Project](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery cache: %w", err)
	}

	walker := filesystem.NewWalker(filesystem.WalkOptions{
		MaxDepth:           cfg.MaxDepth,
		FollowLinks:        cfg.FollowLinks,
		RespectIgnoreFiles: cfg.RespectIgnoreFiles,
		IgnoreHidden:       cfg.IgnoreHidden,
	}, logger)

	return &Discoverer{
		cfg:       cfg,
		toolchain: toolchain,
		loader:    project.NewLoader(toolchain, cfg.LazySizeCalculation, logger),
		walker:    walker,
		cache:     cache,
		logger:    logger,
	}, nil
}

// Discover returns the projects below root. Cancellation stops the walk early
// and returns what was collected so far without an error. Only an inaccessible
// root is an error.
func (d *Discoverer) Discover(ctx context.Context, root string, onFound FoundFunc) ([]models.Project, error) {
	dirs, err := d.findProjectDirs(ctx, root, onFound)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Project directories found",
		zap.String("root", root),
		zap.Int("count", len(dirs)))

	if d.cfg.Parallel {
		return d.resolveParallel(ctx, dirs), nil
	}
	return d.resolveSequential(ctx, dirs), nil
}

// DiscoverOne resolves a single directory, bypassing the walk
func (d *Discoverer) DiscoverOne(ctx context.Context, dir string) (models.Project, error) {
	return d.resolve(ctx, dir)
}

// CacheLen returns the number of cached projects
func (d *Discoverer) CacheLen() int {
	return d.cache.Len()
}

// ClearCache drops every cached project
func (d *Discoverer) ClearCache() {
	d.cache.Purge()
}

// findProjectDirs walks root and collects the canonical directories holding a
// descriptor. A directory reached twice through followed links is kept once.
func (d *Discoverer) findProjectDirs(ctx context.Context, root string, onFound FoundFunc) ([]string, error) {
	var (
		mu    sync.Mutex
		dirs  []string
		seen  = make(map[string]struct{})
		found atomic.Int64
	)

	visit := func(fi *models.FileInfo) error {
		if fi.IsDir {
			if d.isTargetDir(fi) {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.Name != d.toolchain.Descriptor {
			return nil
		}

		dir := project.Canonical(filepath.Dir(fi.Path))
		mu.Lock()
		_, dup := seen[dir]
		if !dup {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
		mu.Unlock()
		if dup {
			d.logger.Debug("Skipping project reached through a link", zap.String("path", fi.Path))
			return nil
		}

		count := found.Add(1)
		if onFound != nil && count%ReportEvery == 0 {
			onFound(int(count))
		}
		return nil
	}

	var err error
	if d.cfg.Parallel {
		err = d.walker.WalkParallel(ctx, root, visit)
	} else {
		err = d.walker.Walk(ctx, root, visit)
	}
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// isTargetDir reports whether a directory is the build output of a sibling descriptor
func (d *Discoverer) isTargetDir(fi *models.FileInfo) bool {
	if fi.Name != d.toolchain.TargetDir {
		return false
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(fi.Path), d.toolchain.Descriptor))
	return err == nil
}

func (d *Discoverer) resolveSequential(ctx context.Context, dirs []string) []models.Project {
	projects := make([]models.Project, 0, len(dirs))
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		p, err := d.resolve(ctx, dir)
		if err != nil {
			d.logger.Warn("Failed to load project", zap.String("path", dir), zap.Error(err))
			continue
		}
		projects = append(projects, p)
	}
	return projects
}

func (d *Discoverer) resolveParallel(ctx context.Context, dirs []string) []models.Project {
	resolved := make([]*models.Project, len(dirs))

	var g errgroup.Group
	g.SetLimit(filesystem.DefaultWalkWorkers())
	for i, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p, err := d.resolve(ctx, dir)
			if err != nil {
				d.logger.Warn("Failed to load project", zap.String("path", dir), zap.Error(err))
				return nil
			}
			resolved[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	projects := make([]models.Project, 0, len(dirs))
	for _, p := range resolved {
		if p != nil {
			projects = append(projects, *p)
		}
	}
	return projects
}

// resolve returns the cached project for dir or loads and caches it.
// The first stored entry for a path wins.
func (d *Discoverer) resolve(ctx context.Context, dir string) (models.Project, error) {
	key := project.Canonical(dir)
	if p, ok := d.cache.Get(key); ok {
		d.logger.Debug("Project served from cache", zap.String("path", key))
		return p, nil
	}

	p, err := d.loader.Load(ctx, key)
	if err != nil {
		return models.Project{}, err
	}

	if prev, ok, _ := d.cache.PeekOrAdd(key, p); ok {
		return prev, nil
	}
	return p, nil
}

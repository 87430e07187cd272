// Package project builds project models from directories holding a descriptor file
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/filesystem"
	"github.com/Latias94/purger/internal/manifest"
	"github.com/Latias94/purger/pkg/models"
	"go.uber.org/zap"
)

// ErrNotAProject is returned when a directory has no descriptor file
var ErrNotAProject = errors.New("not a project")

// Loader constructs projects for one toolchain
type Loader struct {
	toolchain config.Toolchain
	lazy      bool
	logger    *zap.Logger
}

// NewLoader creates a loader. With lazy set, target sizes are left at zero
// until EnsureSize is called.
func NewLoader(toolchain config.Toolchain, lazy bool, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		toolchain: toolchain,
		lazy:      lazy,
		logger:    logger,
	}
}

// FromPath builds a project with an eagerly computed target size
func FromPath(dir string, toolchain config.Toolchain, logger *zap.Logger) (models.Project, error) {
	return NewLoader(toolchain, false, logger).Load(context.Background(), dir)
}

// FromPathLazy builds a project without sizing its target directory
func FromPathLazy(dir string, toolchain config.Toolchain, logger *zap.Logger) (models.Project, error) {
	return NewLoader(toolchain, true, logger).Load(context.Background(), dir)
}

// Load reads the descriptor in dir and stats its target directory.
// A malformed descriptor falls back to the directory name.
func (l *Loader) Load(ctx context.Context, dir string) (models.Project, error) {
	path := Canonical(dir)

	descriptor := filepath.Join(path, l.toolchain.Descriptor)
	info, err := os.Stat(descriptor)
	if err != nil || info.IsDir() {
		return models.Project{}, fmt.Errorf("%s: %w", path, ErrNotAProject)
	}

	p := models.Project{
		Path:         path,
		Name:         filepath.Base(path),
		TargetDir:    filepath.Join(path, l.toolchain.TargetDir),
		LastModified: time.Unix(0, 0).UTC(),
	}

	text, err := filesystem.ReadDescriptor(descriptor)
	if err == nil {
		var doc manifest.Document
		doc, err = manifest.Parse(text)
		if err == nil {
			if name, ok := doc.PackageName(); ok {
				p.Name = name
			}
			p.IsWorkspace = doc.IsWorkspace()
		}
	}
	if err != nil {
		l.logger.Debug("Falling back to directory name for unreadable descriptor",
			zap.String("path", descriptor),
			zap.Error(err))
	}

	if targetInfo, err := os.Stat(p.TargetDir); err == nil && targetInfo.IsDir() {
		p.HasTarget = true
		p.LastModified = targetInfo.ModTime()
		if !l.lazy {
			p.TargetSize = filesystem.DirSizeContext(ctx, p.TargetDir)
		}
	}

	return p, nil
}

// EnsureSize computes the target size of a lazily loaded project in place
func EnsureSize(ctx context.Context, p *models.Project) {
	if p.HasTarget && p.TargetSize == 0 {
		p.TargetSize = filesystem.DirSizeContext(ctx, p.TargetPath())
	}
}

// TargetSize returns the known target size, computing it when unknown
func TargetSize(ctx context.Context, p models.Project) int64 {
	if p.TargetSize > 0 {
		return p.TargetSize
	}
	if !p.HasTarget {
		return 0
	}
	return filesystem.DirSizeContext(ctx, p.TargetPath())
}

// TargetExists reports whether the target directory is currently on disk
func TargetExists(p models.Project) bool {
	info, err := os.Stat(p.TargetPath())
	return err == nil && info.IsDir()
}

// Canonical returns the absolute, symlink-resolved form of path. Unresolvable
// paths are returned cleaned and absolute.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

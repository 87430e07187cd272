// Package cleaner removes project build output with one of two strategies
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/filesystem"
	"github.com/Latias94/purger/internal/project"
	"github.com/Latias94/purger/pkg/models"
	"go.uber.org/zap"
)

// Engine cleans projects according to a CleaningConfig
type Engine struct {
	cfg       config.CleaningConfig
	toolchain config.Toolchain
	logger    *zap.Logger
}

// NewEngine creates a cleaning engine
func NewEngine(cfg config.CleaningConfig, toolchain config.Toolchain, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		toolchain: toolchain,
		logger:    logger,
	}
}

// Config returns the engine's cleaning options
func (e *Engine) Config() config.CleaningConfig {
	return e.cfg
}

// ToolAvailable reports whether the toolchain's clean command can be found
func ToolAvailable(toolchain config.Toolchain) bool {
	if len(toolchain.CleanCommand) == 0 {
		return false
	}
	_, err := exec.LookPath(toolchain.CleanCommand[0])
	return err == nil
}

func (e *Engine) timeout() time.Duration {
	return time.Duration(e.cfg.TimeoutSeconds) * time.Second
}

func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.NumCPU()
}

// CleanProject cleans one project and returns the bytes freed. A project with
// nothing to clean returns zero and no error.
func (e *Engine) CleanProject(ctx context.Context, p models.Project, progress models.ProgressFunc) (int64, error) {
	freed, _, err := e.cleanProject(ctx, p, progress)
	return freed, err
}

// cleanProject runs the per-project state machine. skipped is set when the
// project had nothing to clean.
func (e *Engine) cleanProject(ctx context.Context, p models.Project, progress models.ProgressFunc) (freed int64, skipped bool, err error) {
	if ctx.Err() != nil {
		return 0, false, ErrCancelled
	}

	if e.cfg.DryRun {
		if !p.HasTarget {
			return 0, true, nil
		}
		size := project.TargetSize(ctx, p)
		e.logger.Info("Dry run",
			zap.String("project", p.Name),
			zap.String("size", models.FormatBytes(size)))
		return size, false, nil
	}

	if !p.HasTarget && e.cfg.Strategy == config.StrategyDirectDelete {
		e.logger.Debug("No target directory, skipping", zap.String("project", p.Name))
		return 0, true, nil
	}

	unlock, err := e.lockProject(p)
	if err != nil {
		return 0, false, err
	}
	defer unlock()

	e.logger.Info("Cleaning project",
		zap.String("project", p.Name),
		zap.String("path", p.Path),
		zap.String("size", p.FormattedSize()))

	g := newGuard(ctx, e.timeout())
	em := emitter{project: p.Name, sink: progress}
	em.phase(models.PhaseStarting, "")

	switch e.cfg.Strategy {
	case config.StrategyExternalTool:
		freed, err = e.cleanWithTool(g, p, em)
	case config.StrategyDirectDelete:
		freed, err = e.cleanWithDelete(g, p, em)
	default:
		err = fmt.Errorf("unknown cleaning strategy: %q", e.cfg.Strategy)
	}
	if err != nil {
		return 0, false, err
	}

	em.phase(models.PhaseComplete, "")
	e.logger.Info("Project cleaned",
		zap.String("project", p.Name),
		zap.Int64("bytes", freed))
	return freed, false, nil
}

// cleanWithTool runs the toolchain clean command in the project root
func (e *Engine) cleanWithTool(g guard, p models.Project, em emitter) (int64, error) {
	if err := g.check(); err != nil {
		return 0, err
	}

	label := strings.Join(e.toolchain.CleanCommand, " ")
	em.phase(models.PhaseAnalyzing, label)

	target := p.TargetPath()
	var before int64
	if dirExists(target) {
		before = project.TargetSize(g.ctx, p)
	}

	em.phase(models.PhaseCleaning, label)

	out, err := runCommand(g, e.toolchain.CleanCommand, p.Path, func(elapsed time.Duration) {
		em.send(models.CleanProgress{
			CurrentFile:    fmt.Sprintf("%s (%s)", label, elapsed.Truncate(100*time.Millisecond)),
			FilesProcessed: int(elapsed / (250 * time.Millisecond)),
			Phase:          models.PhaseCleaning,
		})
	})
	if err != nil {
		return 0, err
	}
	e.logger.Debug("Clean command finished",
		append([]zap.Field{zap.String("project", p.Name)}, out.fields()...)...)

	em.phase(models.PhaseFinalizing, "")

	var after int64
	if dirExists(target) {
		after = filesystem.DirSizeContext(g.ctx, target)
	}
	if after >= before {
		return 0, nil
	}
	return before - after, nil
}

// cleanWithDelete removes the target directory after the safety check
func (e *Engine) cleanWithDelete(g guard, p models.Project, em emitter) (int64, error) {
	target := p.TargetPath()
	if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	if err := g.check(); err != nil {
		return 0, err
	}
	if err := validateTarget(p.Path, target); err != nil {
		return 0, err
	}

	em.phase(models.PhaseAnalyzing, "")

	if e.cfg.KeepExecutable {
		if err := e.backupExecutables(g, p, em); err != nil {
			return 0, err
		}
	}

	em.phase(models.PhaseCleaning, "target")

	var (
		freed int64
		err   error
	)
	switch e.cfg.DirectDeleteBackend {
	case config.BackendPlatformBulk:
		freed, err = e.deleteBulk(g, p, target, em)
	default:
		freed, err = e.deleteNative(g, p, target, em)
	}
	if err != nil {
		return 0, err
	}

	em.phase(models.PhaseFinalizing, "")
	return freed, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package cleaner

import (
	"context"
	"errors"
	"time"

	"github.com/Latias94/purger/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// outcome is the result of one project within a batch
type outcome struct {
	ran     bool
	freed   int64
	skipped bool
	err     error
}

// CleanAll cleans every project and aggregates the outcome. Failures are
// recorded in the result. Cancellation stops the batch: projects that already
// finished stay counted and ErrCancelled is returned with the partial result.
func (e *Engine) CleanAll(ctx context.Context, projects []models.Project, progress models.ProgressFunc) (*models.CleanResult, error) {
	start := time.Now()
	result := &models.CleanResult{
		BatchID: uuid.NewString(),
		DryRun:  e.cfg.DryRun,
	}
	logger := e.logger.With(zap.String("batch_id", result.BatchID))
	logger.Info("Starting clean",
		zap.Int("projects", len(projects)),
		zap.String("strategy", string(e.cfg.Strategy)),
		zap.Bool("dry_run", e.cfg.DryRun))

	outcomes := make([]outcome, len(projects))

	var err error
	if e.cfg.Parallel {
		err = e.cleanParallel(ctx, projects, progress, outcomes)
	} else {
		err = e.cleanSequential(ctx, projects, progress, outcomes)
	}

	for i, o := range outcomes {
		switch {
		case !o.ran:
		case o.err != nil:
			logger.Error("Failed to clean project",
				zap.String("project", projects[i].Name),
				zap.String("path", projects[i].Path),
				zap.Error(o.err))
			result.AddFailure(projects[i], o.err)
		case o.skipped:
			result.AddSkipped()
		default:
			result.AddSuccess(o.freed)
		}
	}
	result.DurationMs = time.Since(start).Milliseconds()

	logger.Info("Clean finished",
		zap.Int("cleaned", result.CleanedProjects),
		zap.Int("skipped", result.SkippedProjects),
		zap.Int("failed", len(result.FailedProjects)),
		zap.String("freed", result.FormatSize()),
		zap.Int64("duration_ms", result.DurationMs))

	if err != nil {
		logger.Warn("Clean cancelled")
		return result, ErrCancelled
	}
	return result, nil
}

// Preview runs the batch as a dry run
func (e *Engine) Preview(ctx context.Context, projects []models.Project) (*models.CleanResult, error) {
	cfg := e.cfg
	cfg.DryRun = true
	return NewEngine(cfg, e.toolchain, e.logger).CleanAll(ctx, projects, nil)
}

func (e *Engine) cleanSequential(ctx context.Context, projects []models.Project, progress models.ProgressFunc, outcomes []outcome) error {
	for i, p := range projects {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		freed, skipped, err := e.cleanProject(ctx, p, progress)
		if errors.Is(err, ErrCancelled) {
			return ErrCancelled
		}
		outcomes[i] = outcome{ran: true, freed: freed, skipped: skipped, err: err}
	}
	return nil
}

func (e *Engine) cleanParallel(ctx context.Context, projects []models.Project, progress models.ProgressFunc, outcomes []outcome) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i, p := range projects {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return ErrCancelled
			}
			freed, skipped, err := e.cleanProject(gctx, p, progress)
			if errors.Is(err, ErrCancelled) {
				return ErrCancelled
			}
			outcomes[i] = outcome{ran: true, freed: freed, skipped: skipped, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		for _, o := range outcomes {
			if !o.ran {
				return ErrCancelled
			}
		}
	}
	return nil
}

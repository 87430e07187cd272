package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Latias94/purger/internal/cleaner"
	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/discovery"
	"github.com/Latias94/purger/internal/filter"
	"github.com/Latias94/purger/internal/project"
	"github.com/Latias94/purger/pkg/models"
	"go.uber.org/zap"
)

// ProgressCallback is called to report progress. phase is "discovering" or a
// clean phase name, current/total count projects, message names the project
// or the file being processed.
type ProgressCallback func(phase string, current, total int, message string)

// Purger wires discovery, filtering and cleaning together
type Purger struct {
	config           *config.Config
	logger           *zap.Logger
	discoverer       *discovery.Discoverer
	filter           *filter.Filter
	engine           *cleaner.Engine
	progressCallback ProgressCallback
	mu               sync.Mutex
}

// NewPurger creates a purger from a validated configuration
func NewPurger(cfg *config.Config, logger *zap.Logger) (*Purger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	d, err := discovery.NewDiscoverer(cfg.Discovery, cfg.Toolchain, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize discovery: %w", err)
	}

	f, err := filter.New(cfg.Discovery, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filter: %w", err)
	}

	return &Purger{
		config:     cfg,
		logger:     logger,
		discoverer: d,
		filter:     f,
		engine:     cleaner.NewEngine(cfg.Cleaning, cfg.Toolchain, logger),
	}, nil
}

// SetProgressCallback sets the progress callback function
func (p *Purger) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

// reportProgress calls the progress callback if set. Events from concurrent
// cleans are serialized.
func (p *Purger) reportProgress(phase string, current, total int, message string) {
	if p.progressCallback == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressCallback(phase, current, total, message)
}

// Scan discovers the projects below root, applies the configured filters and
// returns them largest first
func (p *Purger) Scan(ctx context.Context, root string) ([]models.Project, error) {
	p.logger.Info("Starting scan",
		zap.String("path", root),
		zap.Int("max_depth", p.config.Discovery.MaxDepth),
		zap.Bool("parallel", p.config.Discovery.Parallel))

	p.reportProgress("discovering", 0, 0, root)
	projects, err := p.discoverer.Discover(ctx, root, func(count int) {
		p.reportProgress("discovering", count, 0, root)
	})
	if err != nil {
		return nil, err
	}
	p.reportProgress("discovering", len(projects), len(projects), root)

	if p.config.Discovery.LazySizeCalculation {
		// keep_size needs sizes before filtering; otherwise only survivors are sized
		if p.config.Discovery.KeepSize != "" {
			p.ensureSizes(ctx, projects)
			projects = p.filter.Apply(projects)
		} else {
			projects = p.filter.Apply(projects)
			p.ensureSizes(ctx, projects)
		}
	} else {
		projects = p.filter.Apply(projects)
	}
	projects = filter.SortBySize(projects)

	p.logger.Info("Scan completed",
		zap.Int("projects", len(projects)),
		zap.String("total_size", models.FormatBytes(filter.TotalSize(projects))))
	return projects, nil
}

// ensureSizes computes the target sizes of lazily loaded projects in place
func (p *Purger) ensureSizes(ctx context.Context, projects []models.Project) {
	for i := range projects {
		if ctx.Err() != nil {
			return
		}
		project.EnsureSize(ctx, &projects[i])
	}
}

// ScanOne resolves a single project directory
func (p *Purger) ScanOne(ctx context.Context, dir string) (models.Project, error) {
	return p.discoverer.DiscoverOne(ctx, dir)
}

// Clean cleans the given projects. On cancellation the partial result is
// returned together with cleaner.ErrCancelled.
func (p *Purger) Clean(ctx context.Context, projects []models.Project) (*models.CleanResult, error) {
	total := len(projects)
	var finished atomic.Int32

	progress := func(ev models.CleanProgress) {
		current := int(finished.Load())
		if ev.Phase == models.PhaseComplete {
			current = int(finished.Add(1))
		}
		message := ev.ProjectName
		if ev.CurrentFile != "" {
			message = ev.ProjectName + ": " + ev.CurrentFile
		}
		p.reportProgress(ev.Phase.String(), current, total, message)
	}

	return p.engine.CleanAll(ctx, projects, progress)
}

// Preview reports what Clean would free without touching the filesystem
func (p *Purger) Preview(ctx context.Context, projects []models.Project) (*models.CleanResult, error) {
	return p.engine.Preview(ctx, projects)
}

// ToolAvailable reports whether the configured clean command is installed
func (p *Purger) ToolAvailable() bool {
	return cleaner.ToolAvailable(p.config.Toolchain)
}

// Package filter narrows project lists by age, size and path policies
package filter

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/project"
	"github.com/Latias94/purger/pkg/models"
	"go.uber.org/zap"
)

// Filter decides which projects stay in a listing. A project that passes
// every configured policy is retained; dropped projects are the ones
// eligible for cleaning.
type Filter struct {
	keepAge     time.Duration // 0 = unset
	keepSize    int64
	hasKeepSize bool
	ignorePaths []string // canonical prefixes

	now    func() time.Time
	logger *zap.Logger
}

// New builds a filter from the discovery options
func New(cfg config.DiscoveryConfig, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	size, ok, err := cfg.KeepSizeBytes()
	if err != nil {
		return nil, err
	}

	f := &Filter{
		keepSize:    size,
		hasKeepSize: ok,
		now:         time.Now,
		logger:      logger,
	}
	if cfg.KeepDays > 0 {
		f.keepAge = time.Duration(cfg.KeepDays) * 24 * time.Hour
	}
	for _, p := range cfg.IgnorePaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		f.ignorePaths = append(f.ignorePaths, project.Canonical(p))
	}

	return f, nil
}

// WithClock replaces the time source used by the age policy
func (f *Filter) WithClock(now func() time.Time) *Filter {
	f.now = now
	return f
}

// IsIdentity reports whether no policy is configured
func (f *Filter) IsIdentity() bool {
	return f.keepAge == 0 && !f.hasKeepSize && len(f.ignorePaths) == 0
}

// Apply returns the projects retained by every policy, preserving order
func (f *Filter) Apply(projects []models.Project) []models.Project {
	if f.IsIdentity() {
		return projects
	}

	kept := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if f.Keep(p) {
			kept = append(kept, p)
		}
	}

	if removed := len(projects) - len(kept); removed > 0 {
		f.logger.Info("Filter removed projects",
			zap.Int("removed", removed),
			zap.Int("kept", len(kept)))
	}
	return kept
}

// Keep reports whether a single project is retained
func (f *Filter) Keep(p models.Project) bool {
	if !f.keepByAge(p) {
		f.logger.Debug("Dropped by age policy", zap.String("project", p.Name))
		return false
	}
	if !f.keepBySize(p) {
		f.logger.Debug("Dropped by size policy", zap.String("project", p.Name))
		return false
	}
	if !f.keepByPath(p) {
		f.logger.Debug("Dropped by path policy", zap.String("project", p.Name))
		return false
	}
	return true
}

// keepByAge keeps projects built recently. Projects without a target and
// targets dated in the future are always kept.
func (f *Filter) keepByAge(p models.Project) bool {
	if f.keepAge == 0 || !p.HasTarget {
		return true
	}
	elapsed := f.now().Sub(p.LastModified)
	if elapsed < 0 {
		return true
	}
	return elapsed < f.keepAge
}

// keepBySize keeps projects whose target is below the threshold
func (f *Filter) keepBySize(p models.Project) bool {
	if !f.hasKeepSize {
		return true
	}
	return p.TargetSize < f.keepSize
}

// keepByPath keeps only projects under one of the configured prefixes.
// Prefixes name projects to preserve, so everything outside them is dropped.
func (f *Filter) keepByPath(p models.Project) bool {
	if len(f.ignorePaths) == 0 {
		return true
	}
	path := filepath.Clean(p.Path)
	for _, prefix := range f.ignorePaths {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole path components only
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, prefix)
}

// WithTarget returns the projects that have a target directory
func WithTarget(projects []models.Project) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.HasTarget {
			out = append(out, p)
		}
	}
	return out
}

// SortBySize returns a copy sorted by target size, largest first
func SortBySize(projects []models.Project) []models.Project {
	out := make([]models.Project, len(projects))
	copy(out, projects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TargetSize > out[j].TargetSize
	})
	return out
}

// TotalSize sums the known target sizes
func TotalSize(projects []models.Project) int64 {
	var total int64
	for _, p := range projects {
		total += p.TargetSize
	}
	return total
}

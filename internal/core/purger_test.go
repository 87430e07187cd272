package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/filter"
	"github.com/Latias94/purger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createProject(t *testing.T, parent, name string, targetBytes int) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := fmt.Sprintf("[package]\nname = %q\n", name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644))
	if targetBytes > 0 {
		deps := filepath.Join(dir, "target", "debug")
		require.NoError(t, os.MkdirAll(deps, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(deps, "out"), make([]byte, targetBytes), 0o644))
	}
	return dir
}

func newPurger(t *testing.T, mutate func(*config.Config)) *Purger {
	t.Helper()
	cfg := config.Default()
	cfg.Cleaning.LockDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger, _ := zap.NewDevelopment()
	p, err := NewPurger(cfg, logger)
	require.NoError(t, err)
	return p
}

func TestPurger_NewPurgerRejectsBadKeepSize(t *testing.T) {
	cfg := config.Default()
	cfg.Discovery.KeepSize = "lots"
	_, err := NewPurger(cfg, nil)
	assert.Error(t, err)
}

func TestPurger_ScanEmptyDirectory(t *testing.T) {
	projects, err := newPurger(t, nil).Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestPurger_ThreeProjectScenario(t *testing.T) {
	root := t.TempDir()
	createProject(t, root, "one_kb", 1024)
	createProject(t, root, "two_kb", 2048)
	createProject(t, root, "no_target", 0)

	p := newPurger(t, func(c *config.Config) {
		c.Cleaning.DryRun = true
	})

	var mu sync.Mutex
	var phases []string
	p.SetProgressCallback(func(phase string, current, total int, message string) {
		mu.Lock()
		phases = append(phases, phase)
		mu.Unlock()
	})

	projects, err := p.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, projects, 3)

	withTarget := filter.SortBySize(filter.WithTarget(projects))
	require.Len(t, withTarget, 2)
	assert.Equal(t, int64(2048), withTarget[0].TargetSize)
	assert.Equal(t, int64(1024), withTarget[1].TargetSize)

	result, err := p.Clean(context.Background(), withTarget)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CleanedProjects)
	assert.Equal(t, int64(3072), result.TotalSizeFreed)
	for _, proj := range withTarget {
		assert.DirExists(t, proj.TargetPath())
	}
	assert.Contains(t, phases, "discovering")
}

func TestPurger_ScanAppliesAgeFilter(t *testing.T) {
	root := t.TempDir()
	recent := createProject(t, root, "recent", 100)
	stale := createProject(t, root, "stale", 100)

	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(recent, "target"), now, now.Add(-3*24*time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(stale, "target"), now, now.Add(-10*24*time.Hour)))

	p := newPurger(t, func(c *config.Config) { c.Discovery.KeepDays = 7 })
	projects, err := p.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "recent", projects[0].Name)
}

func TestPurger_CleanReportsProgress(t *testing.T) {
	root := t.TempDir()
	createProject(t, root, "a", 64)
	createProject(t, root, "b", 64)

	p := newPurger(t, func(c *config.Config) {
		c.Cleaning.Strategy = config.StrategyDirectDelete
	})

	var mu sync.Mutex
	completed := 0
	maxCurrent := 0
	lastTotal := 0
	p.SetProgressCallback(func(phase string, current, total int, message string) {
		mu.Lock()
		defer mu.Unlock()
		if phase == models.PhaseComplete.String() {
			completed++
			lastTotal = total
			maxCurrent = max(maxCurrent, current)
		}
	})

	projects, err := p.Scan(context.Background(), root)
	require.NoError(t, err)

	result, err := p.Clean(context.Background(), projects)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CleanedProjects)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 2, maxCurrent)
	assert.Equal(t, 2, lastTotal)
	for _, proj := range projects {
		assert.NoDirExists(t, proj.TargetPath())
	}
}

func TestPurger_PreviewDoesNotDelete(t *testing.T) {
	root := t.TempDir()
	dir := createProject(t, root, "keep", 256)

	p := newPurger(t, func(c *config.Config) { c.Cleaning.Strategy = config.StrategyDirectDelete })
	project, err := p.ScanOne(context.Background(), dir)
	require.NoError(t, err)

	result, err := p.Preview(context.Background(), []models.Project{project})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, int64(256), result.TotalSizeFreed)
	assert.DirExists(t, project.TargetPath())
}

func TestPurger_ScanSizesLazyProjects(t *testing.T) {
	root := t.TempDir()
	createProject(t, root, "small", 1024)
	createProject(t, root, "large", 2048)

	t.Run("sorted by size", func(t *testing.T) {
		p := newPurger(t, func(c *config.Config) { c.Discovery.LazySizeCalculation = true })
		projects, err := p.Scan(context.Background(), root)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, int64(2048), projects[0].TargetSize)
		assert.Equal(t, int64(1024), projects[1].TargetSize)
	})

	t.Run("keep size", func(t *testing.T) {
		p := newPurger(t, func(c *config.Config) {
			c.Discovery.LazySizeCalculation = true
			c.Discovery.KeepSize = "1500B"
		})
		projects, err := p.Scan(context.Background(), root)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "small", projects[0].Name)
		assert.Equal(t, int64(1024), projects[0].TargetSize)
	})
}

package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func makeProject(t *testing.T, dir, descriptor string, targetBytes int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(descriptor), 0o644))
	if targetBytes > 0 {
		target := filepath.Join(dir, "target", "debug")
		require.NoError(t, os.MkdirAll(target, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(target, "out.bin"), make([]byte, targetBytes), 0o644))
	}
}

func TestFromPath(t *testing.T) {
	root := t.TempDir()
	tc := config.DefaultToolchain()

	tests := []struct {
		name        string
		descriptor  string
		targetBytes int
		wantName    string
		workspace   bool
		hasTarget   bool
		size        int64
	}{
		{"Package with target", "[package]\nname = \"alpha\"\n", 1024, "alpha", false, true, 1024},
		{"Workspace without target", "[workspace]\nmembers = []\n", 0, "ws", true, false, 0},
		{"Malformed descriptor", "[package\nname=", 2048, "broken", false, true, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirName := tt.wantName
			dir := filepath.Join(root, dirName)
			makeProject(t, dir, tt.descriptor, tt.targetBytes)

			p, err := FromPath(dir, tc, zap.NewNop())
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.workspace, p.IsWorkspace)
			assert.Equal(t, tt.hasTarget, p.HasTarget)
			assert.Equal(t, tt.size, p.TargetSize)
			assert.Equal(t, filepath.Join(p.Path, "target"), p.TargetPath())
			if !tt.hasTarget {
				assert.True(t, p.LastModified.Equal(time.Unix(0, 0)))
			}
		})
	}
}

func TestFromPathNotAProject(t *testing.T) {
	_, err := FromPath(t.TempDir(), config.DefaultToolchain(), nil)
	assert.True(t, errors.Is(err, ErrNotAProject))
}

func TestLazySizing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lazy")
	makeProject(t, dir, "[package]\nname = \"lazy\"\n", 512)

	p, err := FromPathLazy(dir, config.DefaultToolchain(), nil)
	require.NoError(t, err)
	assert.True(t, p.HasTarget)
	assert.Zero(t, p.TargetSize)

	assert.Equal(t, int64(512), TargetSize(context.Background(), p))
	assert.Zero(t, p.TargetSize, "TargetSize must not mutate the value")

	EnsureSize(context.Background(), &p)
	assert.Equal(t, int64(512), p.TargetSize)
	assert.True(t, TargetExists(p))
}

func TestCustomToolchain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "node-app")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "purger.toml"), []byte("[package]\nname = \"app\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "bundle.js"), make([]byte, 100), 0o644))

	tc := config.Toolchain{Descriptor: "purger.toml", TargetDir: "build", CleanCommand: []string{"make", "clean"}}
	p, err := FromPath(dir, tc, nil)
	require.NoError(t, err)
	assert.Equal(t, "app", p.Name)
	assert.Equal(t, filepath.Join(p.Path, "build"), p.TargetPath())
	assert.Equal(t, int64(100), p.TargetSize)
}

func TestCanonical(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	assert.Equal(t, Canonical(dir), Canonical(link))
}

package cleaner

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Latias94/purger/internal/filesystem"
	"github.com/Latias94/purger/pkg/models"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// profileDirs are the build output subdirectories scanned for executables
var profileDirs = []string{"debug", "release"}

// findExecutables lists executables in <target>/{debug,release} and in
// <target>/<triple>/{debug,release}
func findExecutables(target string) []string {
	var dirs []string
	for _, profile := range profileDirs {
		dirs = append(dirs, filepath.Join(target, profile))
	}

	if entries, err := os.ReadDir(target); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || slices.Contains(profileDirs, entry.Name()) {
				continue
			}
			for _, profile := range profileDirs {
				sub := filepath.Join(target, entry.Name(), profile)
				if info, err := os.Stat(sub); err == nil && info.IsDir() {
					dirs = append(dirs, sub)
				}
			}
		}
	}

	var executables []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if filesystem.IsExecutable(path, info) {
				executables = append(executables, path)
			}
		}
	}
	return executables
}

// backupDir returns <base>/<name>-<hash>, where base defaults to
// <project>/executables and hash is derived from the project path
func (e *Engine) backupDir(p models.Project) string {
	base := e.cfg.ExecutableBackupDir
	if base == "" {
		base = filepath.Join(p.Path, "executables")
	}
	return filepath.Join(base, fmt.Sprintf("%s-%s", p.Name, pathHash(p.Path, 8)))
}

// pathHash returns the first n bytes of the blake3 digest of path, hex encoded
func pathHash(path string, n int) string {
	sum := blake3.Sum256([]byte(path))
	return hex.EncodeToString(sum[:n])
}

// backupExecutables copies the executables of the target into the backup directory
func (e *Engine) backupExecutables(g guard, p models.Project, em emitter) error {
	executables := findExecutables(p.TargetPath())
	if len(executables) == 0 {
		e.logger.Debug("No executables to back up", zap.String("project", p.Name))
		return nil
	}

	dir := e.backupDir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	for i, exe := range executables {
		if err := g.check(); err != nil {
			return err
		}
		name := filepath.Base(exe)
		em.send(models.CleanProgress{
			CurrentFile:    "backup " + name,
			FilesProcessed: i,
			TotalFiles:     len(executables),
			Phase:          models.PhaseCleaning,
		})
		dst := filepath.Join(dir, name)
		if err := filesystem.CopyFile(exe, dst); err != nil {
			return fmt.Errorf("failed to back up %s: %w", exe, err)
		}
		e.logger.Debug("Backed up executable",
			zap.String("file", exe),
			zap.String("format", filesystem.BinaryFormat(exe)))
	}

	e.logger.Info("Executables backed up",
		zap.String("project", p.Name),
		zap.Int("count", len(executables)),
		zap.String("dir", dir))
	return nil
}

//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
)

// IsExecutable reports whether a regular file has any execute permission bit set
func IsExecutable(path string, info os.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// ClearWriteProtection makes path and its parent directory writable so a
// retried removal can succeed. Unlinking needs write permission on the parent.
func ClearWriteProtection(path string) error {
	if parent := filepath.Dir(path); parent != path {
		if info, err := os.Lstat(parent); err == nil {
			_ = os.Chmod(parent, info.Mode().Perm()|0o700)
		}
	}

	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	mode := info.Mode().Perm() | 0o600
	if info.IsDir() {
		mode |= 0o100
	}
	return os.Chmod(path, mode)
}

// BulkRemoveCommand returns the platform command that removes a directory tree
func BulkRemoveCommand(path string) []string {
	return []string{"rm", "-rf", "--", path}
}

func isHiddenAttr(path string) bool {
	return false
}

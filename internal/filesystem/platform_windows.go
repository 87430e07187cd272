//go:build windows

package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// IsExecutable reports whether a regular file carries the .exe extension
func IsExecutable(path string, info os.FileInfo) bool {
	return info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), ".exe")
}

// ClearWriteProtection clears the read-only attribute of path
func ClearWriteProtection(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	return os.Chmod(path, info.Mode().Perm()|0o200)
}

// BulkRemoveCommand returns the platform command that removes a directory tree
func BulkRemoveCommand(path string) []string {
	return []string{"cmd", "/C", "rmdir", "/S", "/Q", path}
}

// isHiddenAttr checks FILE_ATTRIBUTE_HIDDEN
func isHiddenAttr(path string) bool {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}

package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateTarget refuses targets that are links or that do not resolve to a
// path strictly below the project root
func validateTarget(projectPath, target string) error {
	info, err := os.Lstat(target)
	if err != nil {
		return fmt.Errorf("failed to read target metadata: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return &UnsafeTargetError{Path: target, Reason: "target is a symlink or reparse point"}
	}

	realTarget, errTarget := filepath.EvalSymlinks(target)
	realRoot, errRoot := filepath.EvalSymlinks(projectPath)
	if errTarget == nil && errRoot == nil {
		if !isStrictlyUnder(realTarget, realRoot) {
			return &UnsafeTargetError{Path: target, Reason: fmt.Sprintf("target escapes project root: %s", realTarget)}
		}
		return nil
	}

	if !isStrictlyUnder(filepath.Clean(target), filepath.Clean(projectPath)) {
		return &UnsafeTargetError{Path: target, Reason: "target is not under project path"}
	}
	return nil
}

func isStrictlyUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

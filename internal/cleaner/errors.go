package cleaner

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCancelled aborts the current project and the rest of the batch
	ErrCancelled = errors.New("clean cancelled")

	// ErrUnsafeTarget matches every UnsafeTargetError
	ErrUnsafeTarget = errors.New("unsafe target directory")

	// ErrProjectLocked is returned when another clean holds the project lock
	ErrProjectLocked = errors.New("project is locked by another clean")
)

// TimeoutError reports a project clean that exceeded its deadline
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clean timed out after %s", e.Timeout)
}

// UnsafeTargetError is returned when a target directory is refused for deletion.
// The filesystem is left untouched.
type UnsafeTargetError struct {
	Path   string
	Reason string
}

func (e *UnsafeTargetError) Error() string {
	return fmt.Sprintf("refusing to delete %s: %s", e.Path, e.Reason)
}

// Is lets errors.Is(err, ErrUnsafeTarget) match
func (e *UnsafeTargetError) Is(target error) bool {
	return target == ErrUnsafeTarget
}

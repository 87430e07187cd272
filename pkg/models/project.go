package models

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultTargetDir is the build output directory name used when a project
// does not carry an explicit target path.
const DefaultTargetDir = "target"

// Project is one discovered project and its build output metadata.
// Path is the identity key and is always a cleaned absolute directory.
type Project struct {
	Path         string    `json:"path" yaml:"path"`
	Name         string    `json:"name" yaml:"name"`
	TargetDir    string    `json:"target_dir" yaml:"target_dir"`
	TargetSize   int64     `json:"target_size" yaml:"target_size"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
	IsWorkspace  bool      `json:"is_workspace" yaml:"is_workspace"`
	HasTarget    bool      `json:"has_target" yaml:"has_target"`
}

// TargetPath returns the build output directory of the project
func (p Project) TargetPath() string {
	if p.TargetDir != "" {
		return p.TargetDir
	}
	return filepath.Join(p.Path, DefaultTargetDir)
}

// RelativePath returns the project path relative to base, or the full path
// when the project does not live under base.
func (p Project) RelativePath(base string) string {
	rel, err := filepath.Rel(base, p.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p.Path
	}
	return rel
}

// FormattedSize returns the known target size in human-readable form
func (p Project) FormattedSize() string {
	return FormatBytes(p.TargetSize)
}

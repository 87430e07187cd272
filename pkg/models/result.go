package models

import "fmt"

// CleanFailure describes one project that could not be cleaned
type CleanFailure struct {
	ProjectName string `json:"project_name" yaml:"project_name"`
	ProjectPath string `json:"project_path" yaml:"project_path"`
	Error       string `json:"error" yaml:"error"`
}

// CleanResult aggregates the outcome of one batch clean
type CleanResult struct {
	BatchID         string         `json:"batch_id" yaml:"batch_id"`
	CleanedProjects int            `json:"cleaned_projects" yaml:"cleaned_projects"`
	SkippedProjects int            `json:"skipped_projects" yaml:"skipped_projects"`
	TotalSizeFreed  int64          `json:"total_size_freed" yaml:"total_size_freed"`
	FailedProjects  []CleanFailure `json:"failed_projects" yaml:"failed_projects"`
	DurationMs      int64          `json:"duration_ms" yaml:"duration_ms"`
	DryRun          bool           `json:"dry_run" yaml:"dry_run"`
}

// AddSuccess records a cleaned project
func (r *CleanResult) AddSuccess(freed int64) {
	r.CleanedProjects++
	r.TotalSizeFreed += freed
}

// AddSkipped records a project that had nothing to clean
func (r *CleanResult) AddSkipped() {
	r.SkippedProjects++
}

// AddFailure records a failed project
func (r *CleanResult) AddFailure(p Project, err error) {
	r.FailedProjects = append(r.FailedProjects, CleanFailure{
		ProjectName: p.Name,
		ProjectPath: p.Path,
		Error:       err.Error(),
	})
}

// FormatSize returns the total freed size in human-readable form
func (r *CleanResult) FormatSize() string {
	return FormatBytes(r.TotalSizeFreed)
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes formats a byte count with binary multiples and two decimals,
// e.g. 1536 -> "1.50 KB". Plain bytes are printed without decimals.
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}

package models

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{5 * 1024 * 1024 * 1024 * 1024, "5.00 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatBytes(tt.input); got != tt.expected {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanResultAccumulates(t *testing.T) {
	var r CleanResult
	r.AddSuccess(1024)
	r.AddSuccess(2048)
	r.AddSkipped()
	r.AddFailure(Project{Name: "broken", Path: "/tmp/broken"}, errors.New("boom"))

	if r.CleanedProjects != 2 {
		t.Errorf("CleanedProjects = %d, want 2", r.CleanedProjects)
	}
	if r.TotalSizeFreed != 3072 {
		t.Errorf("TotalSizeFreed = %d, want 3072", r.TotalSizeFreed)
	}
	if r.SkippedProjects != 1 {
		t.Errorf("SkippedProjects = %d, want 1", r.SkippedProjects)
	}
	if len(r.FailedProjects) != 1 || r.FailedProjects[0].Error != "boom" {
		t.Errorf("FailedProjects = %+v", r.FailedProjects)
	}
	if r.FormatSize() != "3.00 KB" {
		t.Errorf("FormatSize() = %q", r.FormatSize())
	}
}

func TestProjectPaths(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "home", "user", "projects")
	p := Project{Path: filepath.Join(base, "my_project")}

	if got := p.TargetPath(); got != filepath.Join(base, "my_project", "target") {
		t.Errorf("TargetPath() = %q", got)
	}
	if got := p.RelativePath(base); got != "my_project" {
		t.Errorf("RelativePath() = %q, want my_project", got)
	}
	if got := p.RelativePath(filepath.Join(base, "other")); got != p.Path {
		t.Errorf("RelativePath(outside) = %q, want %q", got, p.Path)
	}

	p.TargetDir = filepath.Join(base, "my_project", "build")
	if got := p.TargetPath(); got != p.TargetDir {
		t.Errorf("TargetPath() with explicit dir = %q", got)
	}
}

func TestCleanPhaseString(t *testing.T) {
	phases := map[CleanPhase]string{
		PhaseStarting:   "starting",
		PhaseAnalyzing:  "analyzing",
		PhaseCleaning:   "cleaning",
		PhaseFinalizing: "finalizing",
		PhaseComplete:   "complete",
		CleanPhase(42):  "unknown",
	}
	for phase, want := range phases {
		if got := phase.String(); got != want {
			t.Errorf("CleanPhase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

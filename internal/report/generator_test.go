package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/diskstat"
	"github.com/Latias94/purger/pkg/models"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	root := filepath.Join(string(filepath.Separator), "work")
	r := NewReport(root, []models.Project{
		{Name: "alpha", Path: filepath.Join(root, "alpha"), HasTarget: true, TargetSize: 2048, LastModified: time.Now().Add(-72 * time.Hour)},
		{Name: "beta", Path: filepath.Join(root, "beta"), IsWorkspace: true},
	})
	r.Result = &models.CleanResult{
		BatchID:         "batch-1",
		CleanedProjects: 1,
		SkippedProjects: 1,
		TotalSizeFreed:  2048,
		DurationMs:      1500,
		FailedProjects: []models.CleanFailure{
			{ProjectName: "gamma", ProjectPath: "/work/gamma", Error: "clean timed out after 1s"},
		},
	}
	return r
}

func newGenerator(t *testing.T, format, output string) *Generator {
	t.Helper()
	cfg := config.Default()
	cfg.ReportFormat = format
	cfg.OutputFile = output
	g, err := NewGenerator(cfg, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestNewReportTotals(t *testing.T) {
	r := sampleReport()
	if r.TotalSize != 2048 {
		t.Errorf("TotalSize = %d, want 2048", r.TotalSize)
	}
}

func TestGenerateConsole(t *testing.T) {
	color.NoColor = true

	r := sampleReport()
	r.DiskBefore = &diskstat.Usage{Free: 1 << 30}
	r.DiskAfter = &diskstat.Usage{Free: 1<<30 + 2048}

	var buf bytes.Buffer
	g := newGenerator(t, "", "")
	g.SetOutput(&buf)

	path, err := g.Generate(r)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if path != "" {
		t.Errorf("console report returned path %q", path)
	}

	out := buf.String()
	for _, want := range []string{
		"PROJECTS (2)",
		"[1] alpha",
		"beta (workspace)",
		"2.00 KB",
		"3 days ago",
		"CLEAN COMPLETE",
		"FAILED: 1",
		"clean timed out after 1s",
		"(+2.00 KB)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateConsoleEmpty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	g := newGenerator(t, "console", "")
	g.SetOutput(&buf)

	if _, err := g.Generate(NewReport("/", nil)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No projects found") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestGenerateFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format string
		file   string
		check  func(t *testing.T, data []byte)
	}{
		{"json", "report.json", func(t *testing.T, data []byte) {
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(decoded["projects"].([]any)) != 2 {
				t.Errorf("projects = %v", decoded["projects"])
			}
		}},
		{"yaml", "report.yaml", func(t *testing.T, data []byte) {
			var decoded map[string]any
			if err := yaml.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("invalid YAML: %v", err)
			}
			if decoded["root"] == nil {
				t.Error("root missing")
			}
		}},
		{"text", "report.txt", func(t *testing.T, data []byte) {
			if !strings.Contains(string(data), "PURGER REPORT") || !strings.Contains(string(data), "FAILED gamma") {
				t.Errorf("unexpected text report:\n%s", data)
			}
		}},
		{"md", "report.md", func(t *testing.T, data []byte) {
			if !strings.Contains(string(data), "# Purger Report") || !strings.Contains(string(data), "### Failures") {
				t.Errorf("unexpected markdown report:\n%s", data)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			output := filepath.Join(dir, tt.file)
			path, err := newGenerator(t, tt.format, output).Generate(sampleReport())
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if path != output {
				t.Errorf("path = %q, want %q", path, output)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, data)
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	cfg := config.Default()
	cfg.ReportFormat = "pdf"
	if _, err := NewGenerator(cfg, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Microsecond, "1.50ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1m30.00s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h2m3.00s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

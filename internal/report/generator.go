package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/diskstat"
	"github.com/Latias94/purger/pkg/models"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Report is everything one command run renders
type Report struct {
	Root        string              `json:"root" yaml:"root"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Projects    []models.Project    `json:"projects" yaml:"projects"`
	TotalSize   int64               `json:"total_size" yaml:"total_size"`
	Result      *models.CleanResult `json:"result,omitempty" yaml:"result,omitempty"`
	DiskBefore  *diskstat.Usage     `json:"disk_before,omitempty" yaml:"disk_before,omitempty"`
	DiskAfter   *diskstat.Usage     `json:"disk_after,omitempty" yaml:"disk_after,omitempty"`
}

// NewReport builds a report for a project listing
func NewReport(root string, projects []models.Project) *Report {
	r := &Report{
		Root:        root,
		GeneratedAt: time.Now(),
		Projects:    projects,
	}
	for _, p := range projects {
		r.TotalSize += p.TargetSize
	}
	return r
}

var (
	titleColor   = color.New(color.Bold, color.FgHiYellow)
	labelColor   = color.New(color.FgHiBlack)
	nameColor    = color.New(color.Bold, color.FgWhite)
	sizeColor    = color.New(color.FgCyan)
	successColor = color.New(color.Bold, color.FgGreen)
	failColor    = color.New(color.Bold, color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator renders reports in various formats
type Generator struct {
	format     string
	outputFile string
	out        io.Writer
	logger     *zap.Logger
}

// NewGenerator creates a new report generator. Console output goes to stdout.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	format := strings.ToLower(cfg.ReportFormat)
	switch format {
	case "", "console", "json", "yaml", "yml", "txt", "text", "md", "markdown":
	default:
		return nil, fmt.Errorf("unknown report format: %s", cfg.ReportFormat)
	}
	return &Generator{
		format:     format,
		outputFile: cfg.OutputFile,
		out:        os.Stdout,
		logger:     logger,
	}, nil
}

// SetOutput redirects console output
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// Generate renders the report. Console reports are printed and return an
// empty path; other formats are written to a file whose absolute path is returned.
func (g *Generator) Generate(r *Report) (string, error) {
	if g.format == "" || g.format == "console" {
		g.printConsole(r)
		return "", nil
	}

	outputFile := g.outputFile
	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputFile = fmt.Sprintf("PURGER-REPORT-%s.%s", timestamp, extension(g.format))
	}

	g.logger.Info("Generating report",
		zap.String("format", g.format),
		zap.String("output", outputFile))

	var (
		data []byte
		err  error
	)
	switch g.format {
	case "json":
		data, err = renderJSON(r)
	case "yaml", "yml":
		data, err = renderYAML(r)
	case "txt", "text":
		data = []byte(renderText(r))
	case "md", "markdown":
		data = []byte(renderMarkdown(r))
	}
	if err == nil {
		err = os.WriteFile(outputFile, data, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", g.format, err)
	}

	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

func extension(format string) string {
	switch format {
	case "yml":
		return "yaml"
	case "text":
		return "txt"
	case "markdown":
		return "md"
	}
	return format
}

// printConsole prints the listing and clean summary with colors
func (g *Generator) printConsole(r *Report) {
	w := g.out
	fmt.Fprintln(w)

	if len(r.Projects) == 0 {
		warnColor.Fprintln(w, "  No projects found")
		fmt.Fprintln(w)
	} else {
		titleColor.Fprintf(w, "PROJECTS (%s)\n", humanize.Comma(int64(len(r.Projects))))
		fmt.Fprintln(w)
		for i, p := range r.Projects {
			nameColor.Fprintf(w, "  [%d] %s", i+1, p.Name)
			if p.IsWorkspace {
				labelColor.Fprint(w, " (workspace)")
			}
			fmt.Fprintln(w)
			labelColor.Fprint(w, "      Path:   ")
			fmt.Fprintln(w, p.RelativePath(r.Root))
			labelColor.Fprint(w, "      Target: ")
			if p.HasTarget {
				sizeColor.Fprint(w, p.FormattedSize())
				fmt.Fprintf(w, ", built %s\n", humanize.Time(p.LastModified))
			} else {
				fmt.Fprintln(w, "none")
			}
		}
		fmt.Fprintln(w)
		labelColor.Fprint(w, "  Total:  ")
		sizeColor.Fprintln(w, models.FormatBytes(r.TotalSize))
		fmt.Fprintln(w)
	}

	if r.Result == nil {
		return
	}
	res := r.Result

	if res.DryRun {
		titleColor.Fprintln(w, "DRY RUN")
	} else {
		titleColor.Fprintln(w, "CLEAN COMPLETE")
	}
	fmt.Fprintln(w)
	labelColor.Fprint(w, "  Cleaned:  ")
	successColor.Fprintln(w, res.CleanedProjects)
	labelColor.Fprint(w, "  Skipped:  ")
	fmt.Fprintln(w, res.SkippedProjects)
	labelColor.Fprint(w, "  Freed:    ")
	sizeColor.Fprintln(w, res.FormatSize())
	labelColor.Fprint(w, "  Duration: ")
	fmt.Fprintln(w, FormatDuration(time.Duration(res.DurationMs)*time.Millisecond))

	if r.DiskAfter != nil {
		labelColor.Fprint(w, "  Disk:     ")
		fmt.Fprintf(w, "%s free", humanize.IBytes(r.DiskAfter.Free))
		if gained := r.DiskAfter.Gained(r.DiskBefore); gained > 0 {
			fmt.Fprintf(w, " (+%s)", models.FormatBytes(gained))
		}
		fmt.Fprintln(w)
	}

	if len(res.FailedProjects) > 0 {
		fmt.Fprintln(w)
		failColor.Fprintf(w, "  FAILED: %d\n", len(res.FailedProjects))
		for _, f := range res.FailedProjects {
			nameColor.Fprintf(w, "    %s", f.ProjectName)
			labelColor.Fprintf(w, " %s\n", f.ProjectPath)
			failColor.Fprintf(w, "      %s\n", f.Error)
		}
	}
	fmt.Fprintln(w)
}

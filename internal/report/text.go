package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Latias94/purger/pkg/models"
)

// renderText renders a plain text report
func renderText(r *Report) string {
	var sb strings.Builder

	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  PURGER REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Root:             %s\n", r.Root))
	sb.WriteString(fmt.Sprintf("Generated:        %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Projects:         %d\n", len(r.Projects)))
	sb.WriteString(fmt.Sprintf("Total Size:       %s\n", models.FormatBytes(r.TotalSize)))
	sb.WriteString("\n")

	if len(r.Projects) > 0 {
		sb.WriteString("PROJECTS\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for _, p := range r.Projects {
			target := "-"
			if p.HasTarget {
				target = p.FormattedSize()
			}
			sb.WriteString(fmt.Sprintf("  %-30s %12s  %s\n", p.Name, target, p.RelativePath(r.Root)))
		}
		sb.WriteString("\n")
	}

	if res := r.Result; res != nil {
		title := "CLEAN RESULT"
		if res.DryRun {
			title += " (DRY RUN)"
		}
		sb.WriteString(title + "\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		sb.WriteString(fmt.Sprintf("Batch:            %s\n", res.BatchID))
		sb.WriteString(fmt.Sprintf("Cleaned:          %d\n", res.CleanedProjects))
		sb.WriteString(fmt.Sprintf("Skipped:          %d\n", res.SkippedProjects))
		sb.WriteString(fmt.Sprintf("Failed:           %d\n", len(res.FailedProjects)))
		sb.WriteString(fmt.Sprintf("Freed:            %s\n", res.FormatSize()))
		sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(time.Duration(res.DurationMs)*time.Millisecond)))
		sb.WriteString("\n")

		for _, f := range res.FailedProjects {
			sb.WriteString(fmt.Sprintf("  FAILED %s (%s)\n", f.ProjectName, f.ProjectPath))
			sb.WriteString(fmt.Sprintf("    %s\n", f.Error))
		}
	}

	return sb.String()
}

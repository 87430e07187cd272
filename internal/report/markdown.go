package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Latias94/purger/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Purger Report\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Root | `%s` |\n", r.Root))
	sb.WriteString(fmt.Sprintf("| Generated | %s |\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Projects | %d |\n", len(r.Projects)))
	sb.WriteString(fmt.Sprintf("| Total Size | %s |\n", models.FormatBytes(r.TotalSize)))
	sb.WriteString("\n")

	if len(r.Projects) > 0 {
		sb.WriteString("## Projects\n\n")
		sb.WriteString("| Name | Target | Workspace | Path |\n")
		sb.WriteString("|------|--------|-----------|------|\n")
		for _, p := range r.Projects {
			target := "-"
			if p.HasTarget {
				target = p.FormattedSize()
			}
			workspace := ""
			if p.IsWorkspace {
				workspace = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | `%s` |\n", p.Name, target, workspace, p.RelativePath(r.Root)))
		}
		sb.WriteString("\n")
	}

	if res := r.Result; res != nil {
		if res.DryRun {
			sb.WriteString("## Clean Result (dry run)\n\n")
		} else {
			sb.WriteString("## Clean Result\n\n")
		}
		sb.WriteString("| Parameter | Value |\n")
		sb.WriteString("|-----------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Batch | `%s` |\n", res.BatchID))
		sb.WriteString(fmt.Sprintf("| Cleaned | %d |\n", res.CleanedProjects))
		sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", res.SkippedProjects))
		sb.WriteString(fmt.Sprintf("| **Freed** | **%s** |\n", res.FormatSize()))
		sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(time.Duration(res.DurationMs)*time.Millisecond)))
		sb.WriteString("\n")

		if len(res.FailedProjects) == 0 {
			sb.WriteString("> ✅ **No failures**\n\n")
			return sb.String()
		}

		sb.WriteString("### Failures\n\n")
		for _, f := range res.FailedProjects {
			sb.WriteString(fmt.Sprintf("- **%s** `%s`: %s\n", f.ProjectName, f.ProjectPath, f.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

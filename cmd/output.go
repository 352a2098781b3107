package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"dubber/internal/models"
)

func statusColor(status string) string {
	switch status {
	case string(models.JobStatusCompleted), "OK":
		return color.GreenString(status)
	case string(models.JobStatusFailed):
		return color.RedString(status)
	case string(models.JobStatusProcessing):
		return color.CyanString(status)
	default:
		return color.YellowString(status)
	}
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderJobs prints jobs as a table, one row per job.
func renderJobs(w io.Writer, jobs []*models.Job) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Job ID", "Status", "Progress", "Language", "Activity", "ETA", "Updated At"})
	table.SetBorder(true)
	table.SetRowLine(false)

	for _, job := range jobs {
		table.Append([]string{
			job.ID.String(),
			statusColor(string(job.Status)),
			progressBar(job.Progress),
			job.TargetLanguage,
			job.Activity,
			job.EstimatedTimeRemaining,
			job.UpdatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
}

// renderJob prints every field of a single job.
func renderJob(w io.Writer, job *models.Job) {
	output := "N/A"
	if job.OutputObjectKey != nil {
		output = *job.OutputObjectKey
	}
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator(":")
	table.AppendBulk([][]string{
		{"ID", job.ID.String()},
		{"Status", statusColor(string(job.Status))},
		{"Progress", progressBar(job.Progress)},
		{"Source", job.SourceObjectKey},
		{"Output", output},
		{"Target Language", job.TargetLanguage},
		{"Options", job.OptionsJSON},
		{"Activity", job.Activity},
		{"ETA", job.EstimatedTimeRemaining},
		{"Created At", job.CreatedAt.Format(time.RFC3339)},
		{"Updated At", job.UpdatedAt.Format(time.RFC3339)},
	})
	table.Render()
}

func progressBar(progress int) string {
	const width = 20
	filled := progress * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), progress)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"squeeze/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// RunSummary turns a run result into the rows printed after a run.
func RunSummary(res processor.RunResult) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files processed", Value: fmt.Sprintf("%d", res.Processed)},
		{Label: "Files skipped", Value: fmt.Sprintf("%d", res.Skipped)},
		{Label: "Files failed", Value: fmt.Sprintf("%d", res.Failed)},
		{Label: "Space saved (bytes)", Value: fmt.Sprintf("%d", res.BytesSaved)},
	}
	if n := len(res.ListingErrors); n > 0 {
		rows = append(rows, SummaryRow{Label: "Unreadable directories", Value: fmt.Sprintf("%d", n)})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderProblems lists the batch error, listing errors and per-file failures.
// It returns "" when there is nothing to report.
func RenderProblems(res processor.RunResult) string {
	var lines []string
	if res.ImageBatchErr != nil {
		lines = append(lines, errorStyle.Render("image batch skipped: ")+res.ImageBatchErr.Error())
	}
	for _, fe := range res.ListingErrors {
		lines = append(lines, warnStyle.Render("unreadable: ")+fe.Error())
	}
	for _, fe := range res.Failures {
		lines = append(lines, errorStyle.Render("failed: ")+fe.Error())
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)

package output

import (
	"fmt"
	"strings"

	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// MarkdownFormatter renders results as Markdown tables.
type MarkdownFormatter struct{}

// FormatSummary renders a summary as Markdown.
func (f *MarkdownFormatter) FormatSummary(summary *Summary) (string, error) {
	if summary == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Nemy %s\n\n", escapeMarkdownCell(string(summary.Region))))
	sb.WriteString("| Sensor | Value | Notes |\n")
	sb.WriteString("|--------|-------|-------|\n")

	for _, reading := range summary.Sensors {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeMarkdownCell(reading.Name),
			escapeMarkdownCell(displayValue(reading)),
			escapeMarkdownCell(formatNotes(reading)),
		))
	}

	if summary.Record != nil {
		sb.WriteString(fmt.Sprintf("\n**Interval**: %s\n", escapeMarkdownCell(summary.Record.TimeInterval)))
	}

	return sb.String(), nil
}

// FormatDiagnostics renders a diagnostics snapshot as Markdown.
func (f *MarkdownFormatter) FormatDiagnostics(snapshot *diagnostics.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	var sb strings.Builder
	if len(snapshot.Sensors) > 0 {
		summary, err := f.FormatSummary(&Summary{Region: snapshot.Schedule.Region, Record: snapshot.Data, Sensors: snapshot.Sensors})
		if err != nil {
			return "", err
		}
		sb.WriteString(summary)
	} else {
		sb.WriteString(fmt.Sprintf("## Nemy %s\n", escapeMarkdownCell(string(snapshot.Schedule.Region))))
	}

	sb.WriteString(renderSections(diagnosticsSections(snapshot), true))
	return sb.String(), nil
}

// FormatValidation renders an onboarding result as Markdown.
func (f *MarkdownFormatter) FormatValidation(result *onboarding.Result) (string, error) {
	if result == nil {
		return "", nil
	}

	notes := result.Title
	if !result.OK {
		notes = result.Message
	}

	var sb strings.Builder
	sb.WriteString("| Region | Status | Notes |\n")
	sb.WriteString("|--------|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
		escapeMarkdownCell(string(result.Region)),
		escapeMarkdownCell(statusLabel(result)),
		escapeMarkdownCell(notes),
	))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}

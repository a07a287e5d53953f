package output

import (
	"fmt"
	"strings"

	"github.com/nemy/nemy/internal/core/diagnostics"
)

type section struct {
	Title string
	Lines []string
}

func diagnosticsSections(snapshot *diagnostics.Snapshot) []section {
	if snapshot == nil {
		return nil
	}

	schedule := section{Title: "Schedule", Lines: []string{
		fmt.Sprintf("Region: %s", snapshot.Schedule.Region),
		fmt.Sprintf("Update interval: %s (default %s)",
			formatSeconds(snapshot.Schedule.UpdateInterval),
			formatSeconds(snapshot.Schedule.DefaultUpdateInterval)),
	}}

	timing := section{Title: "Timing", Lines: []string{
		fmt.Sprintf("Now: %s", formatTime(&snapshot.Timing.CurrentTime)),
		fmt.Sprintf("Last update: %s", formatTime(snapshot.Timing.LastUpdate)),
		fmt.Sprintf("Next update due: %s", formatTime(snapshot.Timing.NextUpdateDue)),
	}}

	errorsSection := section{Title: "Errors", Lines: []string{
		fmt.Sprintf("Last update success: %t", snapshot.ErrorTracking.LastUpdateSuccess),
	}}
	if snapshot.ErrorTracking.LastError != "" {
		errorsSection.Lines = append(errorsSection.Lines,
			fmt.Sprintf("Last error (%s): %s", snapshot.ErrorTracking.LastErrorKind, snapshot.ErrorTracking.LastError))
	}

	validation := section{Title: "Validation", Lines: []string{
		fmt.Sprintf("Status: %s", snapshot.Validation.Status),
	}}
	if snapshot.Validation.Error != "" {
		validation.Lines = append(validation.Lines,
			fmt.Sprintf("Error: %s (%s)", snapshot.Validation.Error, snapshot.Validation.Message))
	}
	if len(snapshot.Validation.FieldsPresent) > 0 {
		validation.Lines = append(validation.Lines,
			fmt.Sprintf("Fields: %s", strings.Join(snapshot.Validation.FieldsPresent, ", ")))
	}

	sections := []section{schedule}
	if rl := snapshot.RateLimiting; rl != nil {
		sections = append(sections, section{Title: "Rate limiting", Lines: []string{
			fmt.Sprintf("Minute: %d/%d used, %d remaining", rl.CurrentMinuteRequests, rl.RequestsPerMinute, rl.MinuteRequestsRemaining),
			fmt.Sprintf("Day: %d/%d used, %d remaining", rl.CurrentDailyRequests, rl.RequestsPerDay, rl.DailyRequestsRemaining),
		}})
	}
	sections = append(sections, timing, errorsSection, validation)

	if len(snapshot.UpdateHistory) > 0 {
		history := section{Title: "Update history"}
		for _, update := range snapshot.UpdateHistory {
			line := fmt.Sprintf("%s ok=%t %s", formatTime(&update.Timestamp), update.Success, update.Duration)
			if update.Error != "" {
				line += " " + update.Error
			}
			history.Lines = append(history.Lines, line)
		}
		sections = append(sections, history)
	}

	return sections
}

func renderSections(sections []section, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n### %s\n", s.Title))
			for _, line := range s.Lines {
				sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdownCell(line)))
			}
		} else {
			sb.WriteString(fmt.Sprintf("\n%s:\n", s.Title))
			for _, line := range s.Lines {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}
	return sb.String()
}

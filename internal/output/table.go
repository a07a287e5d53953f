package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatSummary renders the sensors of a summary as a table.
func (f *TableFormatter) FormatSummary(summary *Summary) (string, error) {
	if summary == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Nemy %s", summary.Region)
	t.AppendHeader(table.Row{"Sensor", "Value", "Notes"})

	for _, reading := range summary.Sensors {
		t.AppendRow(table.Row{
			reading.Name,
			displayValue(reading),
			formatNotes(reading),
		})
	}

	if summary.Record != nil {
		t.AppendFooter(table.Row{"", "", "interval " + summary.Record.TimeInterval})
	}

	return t.Render(), nil
}

// FormatDiagnostics renders a diagnostics snapshot as a sensor table
// followed by text sections.
func (f *TableFormatter) FormatDiagnostics(snapshot *diagnostics.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	rendered := ""
	if len(snapshot.Sensors) > 0 {
		summary := &Summary{Region: snapshot.Schedule.Region, Record: snapshot.Data, Sensors: snapshot.Sensors}
		sensors, err := f.FormatSummary(summary)
		if err != nil {
			return "", err
		}
		rendered = sensors + "\n"
	}

	rendered += renderSections(diagnosticsSections(snapshot), false)
	return rendered, nil
}

// FormatValidation renders an onboarding result as a one-row table.
func (f *TableFormatter) FormatValidation(result *onboarding.Result) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Region", "Status", "Notes"})

	notes := result.Title
	if !result.OK {
		notes = result.Message
	}
	t.AppendRow(table.Row{string(result.Region), statusLabel(result), notes})

	return t.Render(), nil
}

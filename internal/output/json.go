package output

import (
	"encoding/json"

	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatSummary renders a summary as JSON.
func (f *JSONFormatter) FormatSummary(summary *Summary) (string, error) {
	if summary == nil {
		return "", nil
	}
	return f.marshal(summary)
}

// FormatDiagnostics renders a diagnostics snapshot as JSON.
func (f *JSONFormatter) FormatDiagnostics(snapshot *diagnostics.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}
	return f.marshal(snapshot)
}

// FormatValidation renders an onboarding result as JSON.
func (f *JSONFormatter) FormatValidation(result *onboarding.Result) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

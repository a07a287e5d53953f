package output

import (
	"gopkg.in/yaml.v3"

	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// YAMLFormatter renders results as YAML.
type YAMLFormatter struct{}

// FormatSummary renders a summary as YAML.
func (f *YAMLFormatter) FormatSummary(summary *Summary) (string, error) {
	if summary == nil {
		return "", nil
	}
	return marshalYAML(summary)
}

// FormatDiagnostics renders a diagnostics snapshot as YAML.
func (f *YAMLFormatter) FormatDiagnostics(snapshot *diagnostics.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}
	return marshalYAML(snapshot)
}

// FormatValidation renders an onboarding result as YAML.
func (f *YAMLFormatter) FormatValidation(result *onboarding.Result) (string, error) {
	if result == nil {
		return "", nil
	}
	return marshalYAML(result)
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

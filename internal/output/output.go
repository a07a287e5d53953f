package output

import (
	"fmt"
	"strings"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// Summary is one fetched record presented as sensors.
type Summary struct {
	Region  core.Region          `json:"region" yaml:"region"`
	Record  *core.SummaryRecord  `json:"record" yaml:"record"`
	Sensors []core.SensorReading `json:"sensors" yaml:"sensors"`
}

// NewSummary builds the presentation of record for region.
func NewSummary(region core.Region, record *core.SummaryRecord) *Summary {
	return &Summary{
		Region:  region,
		Record:  record,
		Sensors: core.Sensors(region, record),
	}
}

// Formatter renders command results.
type Formatter interface {
	FormatSummary(summary *Summary) (string, error)
	FormatDiagnostics(snapshot *diagnostics.Snapshot) (string, error)
	FormatValidation(result *onboarding.Result) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

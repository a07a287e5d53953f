package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/onboarding"
)

// displayValue formats a reading with its precision and unit.
func displayValue(reading core.SensorReading) string {
	if reading.Value == nil {
		return "unknown"
	}

	value, ok := reading.Value.(float64)
	if !ok {
		return fmt.Sprint(reading.Value)
	}

	text := strconv.FormatFloat(value, 'f', reading.Precision, 64)
	switch reading.Unit {
	case "":
		return text
	case "$":
		return "$" + text
	case "%":
		return text + "%"
	default:
		return text + " " + reading.Unit
	}
}

func formatNotes(reading core.SensorReading) string {
	parts := []string{}
	if percentile, ok := reading.Attributes["percentile"]; ok {
		parts = append(parts, fmt.Sprintf("percentile: %v", percentile))
	}
	return strings.Join(parts, "; ")
}

func statusLabel(result *onboarding.Result) string {
	if result == nil {
		return "unknown"
	}
	if result.OK {
		return "valid"
	}

	switch result.Reason {
	case onboarding.ReasonInvalidKey:
		return "invalid API key"
	case onboarding.ReasonSubscriptionRequired:
		return "subscription required"
	case onboarding.ReasonRateLimited:
		return "rate limited"
	case onboarding.ReasonUnreachable:
		return "cannot connect"
	case onboarding.ReasonInvalidResponse:
		return "invalid response"
	default:
		return "unknown error"
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).String()
}

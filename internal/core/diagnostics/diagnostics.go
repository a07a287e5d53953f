// Package diagnostics assembles a redacted support snapshot of the running
// poller.
package diagnostics

import (
	"sort"
	"strings"
	"time"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/core/coordinator"
)

// Redacted replaces secret values.
const Redacted = "**REDACTED**"

// Validation statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusNoData  = "no_data"
)

var redactKeys = map[string]struct{}{
	"api_key":        {},
	"apikey":         {},
	"x-rapidapi-key": {},
	"x_rapidapi_key": {},
	"nemy_api_key":   {},
	"authorization":  {},
}

// Snapshot is the full diagnostics document.
type Snapshot struct {
	Configuration map[string]any       `json:"configuration" yaml:"configuration"`
	Schedule      Schedule             `json:"schedule" yaml:"schedule"`
	Data          *core.SummaryRecord  `json:"data" yaml:"data"`
	RateLimiting  *RateLimiting        `json:"rate_limiting,omitempty" yaml:"rate_limiting,omitempty"`
	Timing        Timing               `json:"timing" yaml:"timing"`
	ErrorTracking ErrorTracking        `json:"error_tracking" yaml:"error_tracking"`
	Validation    Validation           `json:"validation" yaml:"validation"`
	UpdateHistory []coordinator.Update `json:"update_history" yaml:"update_history"`
	Sensors       []core.SensorReading `json:"sensors,omitempty" yaml:"sensors,omitempty"`
}

// Schedule describes the polling cadence.
type Schedule struct {
	Region                core.Region `json:"region" yaml:"region"`
	UpdateInterval        float64     `json:"update_interval" yaml:"update_interval"`
	DefaultUpdateInterval float64     `json:"default_update_interval" yaml:"default_update_interval"`
	LastUpdateSuccess     bool        `json:"last_update_success" yaml:"last_update_success"`
}

// RateLimiting mirrors the ledger usage.
type RateLimiting struct {
	RequestsPerMinute       int `json:"requests_per_minute" yaml:"requests_per_minute"`
	RequestsPerDay          int `json:"requests_per_day" yaml:"requests_per_day"`
	CurrentMinuteRequests   int `json:"current_minute_requests" yaml:"current_minute_requests"`
	CurrentDailyRequests    int `json:"current_daily_requests" yaml:"current_daily_requests"`
	MinuteRequestsRemaining int `json:"minute_requests_remaining" yaml:"minute_requests_remaining"`
	DailyRequestsRemaining  int `json:"daily_requests_remaining" yaml:"daily_requests_remaining"`
}

// Timing holds wall-clock reference points.
type Timing struct {
	CurrentTime   time.Time  `json:"current_time" yaml:"current_time"`
	LastUpdate    *time.Time `json:"last_update" yaml:"last_update"`
	NextUpdateDue *time.Time `json:"next_update_due" yaml:"next_update_due"`
}

// ErrorTracking reports the most recent failure.
type ErrorTracking struct {
	LastUpdateSuccess bool             `json:"last_update_success" yaml:"last_update_success"`
	LastError         string           `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastErrorKind     client.ErrorKind `json:"last_error_kind,omitempty" yaml:"last_error_kind,omitempty"`
}

// Validation re-checks the last known data.
type Validation struct {
	Status        string   `json:"status" yaml:"status"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
	Message       string   `json:"message,omitempty" yaml:"message,omitempty"`
	FieldsPresent []string `json:"data_fields_present,omitempty" yaml:"data_fields_present,omitempty"`
}

// Source is what a snapshot is built from.
type Source interface {
	State() coordinator.State
	Usage() (core.RateLimitUsage, bool)
}

// Collect builds a snapshot. settings are redacted before inclusion.
func Collect(source Source, settings map[string]any, now time.Time) Snapshot {
	state := source.State()

	snapshot := Snapshot{
		Configuration: Redact(settings),
		Schedule: Schedule{
			Region:                state.Region,
			UpdateInterval:        state.Interval.Seconds(),
			DefaultUpdateInterval: state.DefaultInterval.Seconds(),
			LastUpdateSuccess:     state.LastUpdateSuccess,
		},
		Data: state.Data,
		Timing: Timing{
			CurrentTime: now,
		},
		ErrorTracking: ErrorTracking{
			LastUpdateSuccess: state.LastUpdateSuccess,
		},
		Validation:    validationOf(state.Data),
		UpdateHistory: state.History,
	}
	if snapshot.UpdateHistory == nil {
		snapshot.UpdateHistory = []coordinator.Update{}
	}

	if !state.LastUpdate.IsZero() {
		last := state.LastUpdate
		next := state.NextUpdateDue
		snapshot.Timing.LastUpdate = &last
		snapshot.Timing.NextUpdateDue = &next
	}

	if state.LastError != nil {
		snapshot.ErrorTracking.LastError = state.LastError.Error()
		snapshot.ErrorTracking.LastErrorKind = client.KindOf(state.LastError)
	}

	if usage, ok := source.Usage(); ok {
		snapshot.RateLimiting = &RateLimiting{
			RequestsPerMinute:       usage.Minute.Quota,
			RequestsPerDay:          usage.Day.Quota,
			CurrentMinuteRequests:   usage.Minute.Current,
			CurrentDailyRequests:    usage.Day.Current,
			MinuteRequestsRemaining: usage.Minute.Remaining,
			DailyRequestsRemaining:  usage.Day.Remaining,
		}
	}

	if state.Data != nil {
		snapshot.Sensors = core.Sensors(state.Region, state.Data)
	}

	return snapshot
}

func validationOf(record *core.SummaryRecord) Validation {
	if record == nil {
		return Validation{Status: StatusNoData, Message: "No data available for validation"}
	}

	fields := record.Fields()
	present := make([]string, 0, len(fields))
	for key := range fields {
		present = append(present, key)
	}
	sort.Strings(present)

	if _, err := client.Validate(fields); err != nil {
		return Validation{Status: StatusInvalid, Error: err.Error(), FieldsPresent: present}
	}
	return Validation{Status: StatusValid, FieldsPresent: present}
}

// Redact returns a deep copy of settings with secret values replaced.
// Empty secrets stay empty so a missing key remains visible.
func Redact(settings map[string]any) map[string]any {
	if settings == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(settings))
	for key, value := range settings {
		if _, secret := redactKeys[strings.ToLower(key)]; secret {
			if s, ok := value.(string); ok && s == "" {
				out[key] = ""
			} else {
				out[key] = Redacted
			}
			continue
		}
		out[key] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Redact(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = redactValue(item)
		}
		return items
	default:
		return v
	}
}

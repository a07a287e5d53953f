package metrics

import (
	"time"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Summary fetch metrics
	FetchTotal       = "nemy_fetch_total"
	FetchDuration    = "nemy_fetch_duration_ms"
	RateLimitedTotal = "nemy_rate_limited_total"

	// Ledger metrics
	LedgerRequests  = "nemy_ledger_requests"
	LedgerRemaining = "nemy_ledger_remaining"

	// Sensor metrics
	SensorValue    = "nemy_sensor_value"
	UpdateInterval = "nemy_update_interval_seconds"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
)

// RecordFetch records one summary fetch with its outcome kind ("success" or an error kind).
func RecordFetch(region core.Region, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"region":  string(region),
		"outcome": outcome,
	}
	_ = observability.TelemetrySystem.Counter(FetchTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(FetchDuration, duration, labels)
}

// RecordRateLimited records a rejection by the local ledger or the upstream limiter.
func RecordRateLimited(region core.Region, scope string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitedTotal,
			1,
			map[string]string{
				"region": string(region),
				"scope":  scope,
			},
		)
	}
}

// SetLedgerUsage publishes current ledger counts per window.
func SetLedgerUsage(region core.Region, usage core.RateLimitUsage) {
	if observability.TelemetrySystem == nil {
		return
	}

	for window, u := range map[string]core.LedgerUsage{"minute": usage.Minute, "day": usage.Day} {
		labels := map[string]string{"region": string(region), "window": window}
		_ = observability.TelemetrySystem.Gauge(LedgerRequests, float64(u.Current), labels)
		_ = observability.TelemetrySystem.Gauge(LedgerRemaining, float64(u.Remaining), labels)
	}
}

// SetSensorValues publishes numeric sensor readings as gauges.
func SetSensorValues(region core.Region, record *core.SummaryRecord) {
	if observability.TelemetrySystem == nil || record == nil {
		return
	}

	for _, field := range core.NumericFields {
		value, ok := record.Float(field)
		if !ok {
			continue
		}
		_ = observability.TelemetrySystem.Gauge(
			SensorValue,
			value,
			map[string]string{
				"region": string(region),
				"sensor": field,
			},
		)
	}
}

// SetUpdateInterval publishes the scheduler's current poll interval.
func SetUpdateInterval(region core.Region, interval time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			UpdateInterval,
			interval.Seconds(),
			map[string]string{"region": string(region)},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

func TestRecordFetch(t *testing.T) {
	collector := setupTelemetry(t)

	RecordFetch(core.RegionQLD, "success", 150*time.Millisecond)
	RecordRateLimited(core.RegionQLD, "minute")

	assert.Equal(t, 1, collector.CountMetricsByName(FetchTotal))
	assert.Equal(t, 1, collector.CountMetricsByName(FetchDuration))
	assert.Equal(t, 1, collector.CountMetricsByName(RateLimitedTotal))
}

func TestSetLedgerUsageEmitsBothWindows(t *testing.T) {
	collector := setupTelemetry(t)

	SetLedgerUsage(core.RegionNEM, core.RateLimitUsage{
		Minute: core.LedgerUsage{Quota: 30, Current: 3, Remaining: 27},
		Day:    core.LedgerUsage{Quota: 1000, Current: 3, Remaining: 997},
	})

	assert.Equal(t, 2, collector.CountMetricsByName(LedgerRequests))
	assert.Equal(t, 2, collector.CountMetricsByName(LedgerRemaining))
}

func TestSetSensorValues(t *testing.T) {
	collector := setupTelemetry(t)

	SetSensorValues(core.RegionTAS, nil)
	assert.Equal(t, 0, collector.CountMetricsByName(SensorValue))

	SetSensorValues(core.RegionTAS, &core.SummaryRecord{PriceHousehold: 10})
	assert.Equal(t, len(core.NumericFields), collector.CountMetricsByName(SensorValue))

	SetUpdateInterval(core.RegionTAS, 5*time.Minute)
	assert.Equal(t, 1, collector.CountMetricsByName(UpdateInterval))
}

func TestErrorCounters(t *testing.T) {
	collector := setupTelemetry(t)

	RecordError("RATE_LIMITED", 429)
	RecordErrorByEndpoint("/api/v1/refresh", "RATE_LIMITED")
	RecordPanic()
	RecordHealthCheck("upstream", false, time.Millisecond)

	assert.Equal(t, 1, collector.CountMetricsByName(ErrorsTotalName))
	assert.Equal(t, 1, collector.CountMetricsByName(ErrorsByEndpointName))
	assert.Equal(t, 1, collector.CountMetricsByName(PanicsTotalName))
	assert.Equal(t, 1, collector.CountMetricsByName(HealthCheckTotal))
}

func TestRecordersWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	RecordFetch(core.RegionSA, "timeout", time.Second)
	SetLedgerUsage(core.RegionSA, core.RateLimitUsage{})
	RecordError("TIMEOUT", 504)
}

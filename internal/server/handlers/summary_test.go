package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/core/coordinator"
	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/core/engine"
	apperrors "github.com/nemy/nemy/internal/errors"
)

type queuedFetcher struct {
	results []fetchResult
	usage   core.RateLimitUsage
}

type fetchResult struct {
	record *core.SummaryRecord
	err    error
}

func (f *queuedFetcher) FetchSummary(ctx context.Context) (*core.SummaryRecord, error) {
	next := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return next.record, next.err
}

func (f *queuedFetcher) Usage() core.RateLimitUsage { return f.usage }

func testRecord() *core.SummaryRecord {
	return &core.SummaryRecord{
		TimeInterval:         "2025-01-01T12:05:00+10:00",
		PriceHousehold:       25.5,
		PriceDispatch:        90,
		PricePercentile:      60,
		PriceCategory:        core.PriceTypical,
		Renewables:           45,
		RenewablesNoRooftop:  35,
		RenewablesPercentile: 70,
		RenewablesCategory:   core.RenewablesTypical,
	}
}

func newSource(results ...fetchResult) *coordinator.Coordinator {
	return coordinator.New(&queuedFetcher{results: results}, coordinator.Options{Region: core.RegionVIC})
}

func TestSummaryUnavailableBeforeFirstRefresh(t *testing.T) {
	ResetHTTPErrorResponder()
	h := NewSummaryHandlers(newSource(fetchResult{record: testRecord()}), nil)

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeServiceUnavailable, body.Error.Code)
}

func TestSummaryAfterRefresh(t *testing.T) {
	source := newSource(fetchResult{record: testRecord()})
	require.NoError(t, source.Refresh(context.Background()))
	h := NewSummaryHandlers(source, nil)

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, core.RegionVIC, body.Region)
	require.NotNil(t, body.Data)
	assert.Equal(t, 25.5, body.Data.PriceHousehold)
	assert.NotNil(t, body.LastUpdate)
	assert.False(t, body.Stale)
}

func TestSummaryMarksStaleData(t *testing.T) {
	source := newSource(
		fetchResult{record: testRecord()},
		fetchResult{err: &client.TransportError{Cause: context.DeadlineExceeded}},
	)
	require.NoError(t, source.Refresh(context.Background()))
	require.Error(t, source.Refresh(context.Background()))

	rec := httptest.NewRecorder()
	NewSummaryHandlers(source, nil).Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Stale)
	assert.Equal(t, 25.5, body.Data.PriceHousehold)
}

func TestSensorsEndpoint(t *testing.T) {
	source := newSource(fetchResult{record: testRecord()})
	require.NoError(t, source.Refresh(context.Background()))

	rec := httptest.NewRecorder()
	NewSummaryHandlers(source, nil).Sensors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SensorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, core.RegionVIC, body.Region)
	assert.Len(t, body.Sensors, len(core.SensorDescriptions))
}

func TestDiagnosticsRedactsSettings(t *testing.T) {
	source := newSource(fetchResult{record: testRecord()})
	require.NoError(t, source.Refresh(context.Background()))
	settings := func() map[string]any {
		return map[string]any{"api_key": "secret", "region": "VIC1"}
	}

	rec := httptest.NewRecorder()
	NewSummaryHandlers(source, settings).Diagnostics(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body diagnostics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, diagnostics.Redacted, body.Configuration["api_key"])
	assert.Equal(t, "VIC1", body.Configuration["region"])
	assert.Equal(t, diagnostics.StatusValid, body.Validation.Status)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestRefreshReportsLocalQuota(t *testing.T) {
	ResetHTTPErrorResponder()
	retry := 30 * time.Second
	source := newSource(fetchResult{err: &client.RateLimitedError{Scope: engine.ScopeMinute, RetryAfter: &retry}})

	rec := httptest.NewRecorder()
	NewSummaryHandlers(source, nil).Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestRefreshReturnsFreshSummary(t *testing.T) {
	source := newSource(fetchResult{record: testRecord()})

	rec := httptest.NewRecorder()
	NewSummaryHandlers(source, nil).Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 25.5, body.Data.PriceHousehold)
}

func TestCoordinatorChecker(t *testing.T) {
	ctx := context.Background()

	fresh := newSource(fetchResult{record: testRecord()})
	assert.ErrorIs(t, CoordinatorChecker(fresh).CheckHealth(ctx), ErrDegraded)

	require.NoError(t, fresh.Refresh(ctx))
	assert.NoError(t, CoordinatorChecker(fresh).CheckHealth(ctx))

	failing := newSource(fetchResult{err: &client.HTTPError{StatusCode: 500}})
	require.Error(t, failing.Refresh(ctx))
	err := CoordinatorChecker(failing).CheckHealth(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegraded)
}

func TestQuotaChecker(t *testing.T) {
	fetcher := &queuedFetcher{
		results: []fetchResult{{record: testRecord()}},
		usage: core.RateLimitUsage{
			Minute: core.LedgerUsage{Quota: 30, Current: 30, Remaining: 0},
			Day:    core.LedgerUsage{Quota: 1000, Current: 30, Remaining: 970},
		},
	}
	source := coordinator.New(fetcher, coordinator.Options{Region: core.RegionNEM})
	assert.ErrorIs(t, QuotaChecker(source).CheckHealth(context.Background()), ErrDegraded)

	fetcher.usage.Minute.Remaining = 1
	assert.NoError(t, QuotaChecker(source).CheckHealth(context.Background()))
}

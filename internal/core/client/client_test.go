package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/engine"
)

const validBody = `{
	"time_interval": "2025-01-01T12:05:00+10:00",
	"price_household": 21.35,
	"price_dispatch": "-12.5",
	"price_percentile": 42,
	"price_category": "typical",
	"renewables": 55.1,
	"renewables_no_rooftop": "-0.8",
	"renewables_percentile": 100,
	"renewables_category": "green",
	"extra": "ignored"
}`

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func writeBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchSummarySendsRequest(t *testing.T) {
	var got *http.Request
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeBody(validBody)(w, r)
	})

	c := New("secret-key", core.RegionQLD, server.Client(), WithBaseURL(server.URL))
	_, err := c.FetchSummary(context.Background())
	require.NoError(t, err)

	require.NotNil(t, got)
	require.Equal(t, http.MethodGet, got.Method)
	require.Equal(t, "/NEM/summary/current", got.URL.Path)
	require.Equal(t, "QLD1", got.URL.Query().Get("state"))
	require.Equal(t, "secret-key", got.Header.Get("x-rapidapi-key"))
	require.Equal(t, RapidAPIHost, got.Header.Get("x-rapidapi-host"))
}

func TestFetchSummaryRoundTrip(t *testing.T) {
	server, _ := newTestServer(t, writeBody(validBody))
	c := New("key", core.RegionNSW, server.Client(), WithBaseURL(server.URL))

	record, err := c.FetchSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, &core.SummaryRecord{
		TimeInterval:         "2025-01-01T12:05:00+10:00",
		PriceHousehold:       21.35,
		PriceDispatch:        -12.5,
		PricePercentile:      42,
		PriceCategory:        core.PriceTypical,
		Renewables:           55.1,
		RenewablesNoRooftop:  -0.8,
		RenewablesPercentile: 100,
		RenewablesCategory:   core.RenewablesGreen,
	}, record)
}

func TestFetchSummaryRecordsOnlySuccess(t *testing.T) {
	status := http.StatusOK
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		writeBody(validBody)(w, r)
	})
	c := New("key", core.RegionNSW, server.Client(), WithBaseURL(server.URL))

	_, err := c.FetchSummary(context.Background())
	require.NoError(t, err)
	usage := c.Usage()
	require.Equal(t, 1, usage.Minute.Current)
	require.Equal(t, 1, usage.Day.Current)

	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusUnauthorized} {
		status = code
		_, err := c.FetchSummary(context.Background())
		require.Error(t, err)
	}

	usage = c.Usage()
	require.Equal(t, 1, usage.Minute.Current)
	require.Equal(t, 1, usage.Day.Current)
}

func TestFetchSummaryRemoteRateLimit(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := New("key", core.RegionNSW, server.Client(), WithBaseURL(server.URL))

	_, err := c.FetchSummary(context.Background())
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	require.Equal(t, engine.ScopeRemote, rateLimited.Scope)
	require.Nil(t, rateLimited.RetryAfter)
	require.Equal(t, KindRateLimited, KindOf(err))
	require.Equal(t, 0, c.Usage().Minute.Current)
}

func TestFetchSummaryLocalMinuteLimit(t *testing.T) {
	server, calls := newTestServer(t, writeBody(validBody))
	clock := newClock()
	c := New("key", core.RegionSA, server.Client(),
		WithBaseURL(server.URL),
		WithQuotas(3, 1000),
		WithClock(clock.Now),
	)

	for i := 0; i < 3; i++ {
		_, err := c.FetchSummary(context.Background())
		require.NoError(t, err)
		clock.Advance(5 * time.Second)
	}
	require.Equal(t, int32(3), calls.Load())

	_, err := c.FetchSummary(context.Background())
	scope, retryAfter, ok := RetryAfterOf(err)
	require.True(t, ok)
	require.Equal(t, engine.ScopeMinute, scope)
	require.NotNil(t, retryAfter)
	require.Equal(t, 45*time.Second, *retryAfter)
	require.Equal(t, int32(3), calls.Load(), "rejected call must not reach the network")

	clock.Advance(45*time.Second + time.Millisecond)
	_, err = c.FetchSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(4), calls.Load())
}

func TestFetchSummaryLocalDayLimit(t *testing.T) {
	server, calls := newTestServer(t, writeBody(validBody))
	clock := newClock()
	c := New("key", core.RegionSA, server.Client(),
		WithBaseURL(server.URL),
		WithQuotas(30, 2),
		WithClock(clock.Now),
	)

	for i := 0; i < 2; i++ {
		_, err := c.FetchSummary(context.Background())
		require.NoError(t, err)
		clock.Advance(time.Hour)
	}

	_, err := c.FetchSummary(context.Background())
	scope, retryAfter, ok := RetryAfterOf(err)
	require.True(t, ok)
	require.Equal(t, engine.ScopeDay, scope)
	require.Equal(t, 22*time.Hour, *retryAfter)
	require.Equal(t, int32(2), calls.Load())
}

func TestFetchSummaryHTTPStatus(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := New("key", core.RegionTAS, server.Client(), WithBaseURL(server.URL))

	_, err := c.FetchSummary(context.Background())
	status, ok := StatusCodeOf(err)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, KindHTTP, KindOf(err))
}

func TestFetchSummaryMalformedPayload(t *testing.T) {
	bodies := []string{
		`not json`,
		`[1, 2, 3]`,
		`null`,
		validBody + ` {"x":1} garbage`,
		validBody + `}`,
	}
	for _, body := range bodies {
		server, _ := newTestServer(t, writeBody(body))
		c := New("key", core.RegionVIC, server.Client(), WithBaseURL(server.URL))

		record, err := c.FetchSummary(context.Background())
		require.Error(t, err, body)
		require.Nil(t, record, body)
		require.Equal(t, KindTransport, KindOf(err), body)
		require.Zero(t, c.Usage().Minute.Current, body)
		require.Zero(t, c.Usage().Day.Current, body)
	}
}

func TestFetchSummaryAcceptsTrailingWhitespace(t *testing.T) {
	server, _ := newTestServer(t, writeBody(validBody+"\n\t "))
	c := New("key", core.RegionVIC, server.Client(), WithBaseURL(server.URL))

	_, err := c.FetchSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Usage().Minute.Current)
}

func TestFetchSummaryValidationFailureNotRecorded(t *testing.T) {
	server, _ := newTestServer(t, writeBody(`{"price_category": "typical"}`))
	c := New("key", core.RegionVIC, server.Client(), WithBaseURL(server.URL))

	_, err := c.FetchSummary(context.Background())
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, ValidationMissingFields, validation.Kind)
	require.Equal(t, 0, c.Usage().Day.Current)
}

func TestFetchSummaryTimeout(t *testing.T) {
	release := make(chan struct{})
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := New("key", core.RegionNEM, server.Client(), WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))

	_, err := c.FetchSummary(context.Background())
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, KindTimeout, KindOf(err))
}

func TestFetchSummaryCallerCancellation(t *testing.T) {
	server, _ := newTestServer(t, writeBody(validBody))
	c := New("key", core.RegionNEM, server.Client(), WithBaseURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchSummary(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, KindTransport, KindOf(err))
}

func TestFetchSummaryConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New("key", core.RegionNEM, &http.Client{}, WithBaseURL(url))
	_, err := c.FetchSummary(context.Background())
	require.Equal(t, KindTransport, KindOf(err))
}

func TestFetchSummaryConcurrentCallersRespectQuota(t *testing.T) {
	server, calls := newTestServer(t, writeBody(validBody))
	c := New("key", core.RegionSA, server.Client(), WithBaseURL(server.URL), WithQuotas(3, 100))

	const callers = 10
	var wg sync.WaitGroup
	var successes, limited atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchSummary(context.Background())
			switch {
			case err == nil:
				successes.Add(1)
			case KindOf(err) == KindRateLimited:
				limited.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(3), successes.Load())
	require.Equal(t, int32(callers-3), limited.Load())
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, 3, c.Usage().Minute.Current)
}

// Package coordinator polls a summary fetcher on a schedule and keeps the
// last known good record.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/metrics"
)

const (
	// DefaultInterval is the regular poll interval.
	DefaultInterval = 300 * time.Second
	// DefaultMaxInterval caps interval widening after rate limiting.
	DefaultMaxInterval = time.Hour
	// HistorySize bounds the retained update history.
	HistorySize = 10
)

// Fetcher returns the current validated summary.
type Fetcher interface {
	FetchSummary(ctx context.Context) (*core.SummaryRecord, error)
}

// UsageReporter is implemented by fetchers that expose ledger usage.
type UsageReporter interface {
	Usage() core.RateLimitUsage
}

// Update is one entry of the refresh history.
type Update struct {
	ID        string           `json:"id" yaml:"id"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Success   bool             `json:"success" yaml:"success"`
	Duration  time.Duration    `json:"duration" yaml:"duration"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind client.ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}

// State is a point-in-time copy of the coordinator's bookkeeping.
type State struct {
	Region            core.Region
	Data              *core.SummaryRecord
	LastUpdate        time.Time
	LastUpdateSuccess bool
	LastError         error
	Interval          time.Duration
	DefaultInterval   time.Duration
	NextUpdateDue     time.Time
	History           []Update
}

// Options configures a Coordinator.
type Options struct {
	Region      core.Region
	Interval    time.Duration
	MaxInterval time.Duration
	Logger      *logging.Logger
	Clock       func() time.Time
}

// Coordinator owns the refresh schedule and the last known good data.
type Coordinator struct {
	fetcher         Fetcher
	region          core.Region
	defaultInterval time.Duration
	maxInterval     time.Duration
	logger          *logging.Logger
	clock           func() time.Time

	mu          sync.RWMutex
	data        *core.SummaryRecord
	interval    time.Duration
	lastUpdate  time.Time
	lastSuccess bool
	lastErr     error
	history     []Update
}

// New creates a coordinator for fetcher.
func New(fetcher Fetcher, opts Options) *Coordinator {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxInterval := opts.MaxInterval
	if maxInterval < interval {
		maxInterval = DefaultMaxInterval
		if maxInterval < interval {
			maxInterval = interval
		}
	}

	return &Coordinator{
		fetcher:         fetcher,
		region:          opts.Region,
		defaultInterval: interval,
		maxInterval:     maxInterval,
		logger:          opts.Logger,
		clock:           opts.Clock,
		interval:        interval,
	}
}

// Refresh fetches once and updates the bookkeeping. On failure the previous
// data is kept and the error is returned wrapped.
func (c *Coordinator) Refresh(ctx context.Context) error {
	started := c.now()
	record, err := c.fetcher.FetchSummary(ctx)
	finished := c.now()
	duration := finished.Sub(started)

	update := Update{
		ID:        uuid.New().String(),
		Timestamp: finished,
		Success:   err == nil,
		Duration:  duration,
	}
	if err != nil {
		update.Error = err.Error()
		update.ErrorKind = client.KindOf(err)
	}

	c.mu.Lock()
	c.lastUpdate = finished
	c.lastSuccess = err == nil
	c.lastErr = err
	if err == nil {
		c.data = record
	}
	c.interval = c.nextInterval(err)
	c.history = append(c.history, update)
	if len(c.history) > HistorySize {
		c.history = append([]Update(nil), c.history[len(c.history)-HistorySize:]...)
	}
	interval := c.interval
	c.mu.Unlock()

	c.emit(record, err, duration, interval)

	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// Run refreshes immediately and then on the current interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		_ = c.Refresh(ctx)

		timer := time.NewTimer(c.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Data returns the last known good record, or nil.
func (c *Coordinator) Data() *core.SummaryRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Interval returns the current poll interval.
func (c *Coordinator) Interval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interval
}

// Region returns the region being polled.
func (c *Coordinator) Region() core.Region {
	return c.region
}

// State returns a snapshot of the bookkeeping.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := State{
		Region:            c.region,
		Data:              c.data,
		LastUpdate:        c.lastUpdate,
		LastUpdateSuccess: c.lastSuccess,
		LastError:         c.lastErr,
		Interval:          c.interval,
		DefaultInterval:   c.defaultInterval,
		History:           append([]Update(nil), c.history...),
	}
	if !c.lastUpdate.IsZero() {
		state.NextUpdateDue = c.lastUpdate.Add(c.interval)
	}
	return state
}

// Usage returns the fetcher's ledger usage when available.
func (c *Coordinator) Usage() (core.RateLimitUsage, bool) {
	reporter, ok := c.fetcher.(UsageReporter)
	if !ok {
		return core.RateLimitUsage{}, false
	}
	return reporter.Usage(), true
}

// nextInterval widens the interval after rate limiting and resets it on
// success. Caller holds c.mu.
func (c *Coordinator) nextInterval(err error) time.Duration {
	if err == nil {
		return c.defaultInterval
	}

	_, retryAfter, ok := client.RetryAfterOf(err)
	if !ok {
		return c.interval
	}

	next := c.interval * 2
	if retryAfter != nil {
		next = *retryAfter
		if next < c.defaultInterval {
			next = c.defaultInterval
		}
	}
	if next > c.maxInterval {
		next = c.maxInterval
	}
	return next
}

func (c *Coordinator) emit(record *core.SummaryRecord, err error, duration, interval time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = string(client.KindOf(err))
	}
	metrics.RecordFetch(c.region, outcome, duration)
	metrics.SetUpdateInterval(c.region, interval)
	if usage, ok := c.Usage(); ok {
		metrics.SetLedgerUsage(c.region, usage)
	}
	if record != nil {
		metrics.SetSensorValues(c.region, record)
	}
	if scope, _, ok := client.RetryAfterOf(err); ok {
		metrics.RecordRateLimited(c.region, string(scope))
	}

	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.Warn("Summary update failed",
			zap.String("region", string(c.region)),
			zap.String("error_kind", outcome),
			zap.Duration("duration", duration),
			zap.Duration("next_interval", interval),
			zap.Error(err))
		return
	}
	c.logger.Debug("Summary updated",
		zap.String("region", string(c.region)),
		zap.String("time_interval", record.TimeInterval),
		zap.Float64("price_household", record.PriceHousehold),
		zap.String("price_category", string(record.PriceCategory)),
		zap.Duration("duration", duration))
}

func (c *Coordinator) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now().UTC()
}

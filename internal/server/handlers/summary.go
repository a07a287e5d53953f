package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/coordinator"
	"github.com/nemy/nemy/internal/core/diagnostics"
	apperrors "github.com/nemy/nemy/internal/errors"
	"github.com/nemy/nemy/internal/observability"
)

// SummarySource is the poller surface the data endpoints read from.
type SummarySource interface {
	Region() core.Region
	Data() *core.SummaryRecord
	State() coordinator.State
	Usage() (core.RateLimitUsage, bool)
	Refresh(ctx context.Context) error
}

// SummaryResponse is the body of /api/v1/summary.
type SummaryResponse struct {
	Region     core.Region         `json:"region"`
	Data       *core.SummaryRecord `json:"data"`
	LastUpdate *time.Time          `json:"last_update,omitempty"`
	// Stale is true when the most recent refresh failed.
	Stale bool `json:"stale"`
}

// SensorsResponse is the body of /api/v1/sensors.
type SensorsResponse struct {
	Region  core.Region          `json:"region"`
	Sensors []core.SensorReading `json:"sensors"`
}

// SummaryHandlers serves the poller's data over HTTP.
type SummaryHandlers struct {
	source   SummarySource
	settings func() map[string]any
	clock    func() time.Time
}

// NewSummaryHandlers binds handlers to source. settings supplies the
// configuration shown (redacted) in diagnostics and may be nil.
func NewSummaryHandlers(source SummarySource, settings func() map[string]any) *SummaryHandlers {
	return &SummaryHandlers{
		source:   source,
		settings: settings,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the last known good record, or 503 before the first success.
func (h *SummaryHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	state := h.source.State()
	if state.Data == nil {
		respondWithError(w, r, noDataError(state))
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse(state))
}

// Sensors returns the record as sensor readings.
func (h *SummaryHandlers) Sensors(w http.ResponseWriter, r *http.Request) {
	state := h.source.State()
	if state.Data == nil {
		respondWithError(w, r, noDataError(state))
		return
	}
	writeJSON(w, http.StatusOK, SensorsResponse{
		Region:  state.Region,
		Sensors: core.Sensors(state.Region, state.Data),
	})
}

// Diagnostics returns the redacted diagnostics snapshot.
func (h *SummaryHandlers) Diagnostics(w http.ResponseWriter, r *http.Request) {
	var settings map[string]any
	if h.settings != nil {
		settings = h.settings()
	}
	writeJSON(w, http.StatusOK, diagnostics.Collect(h.source, settings, h.clock()))
}

// Refresh triggers one fetch. Local quota rejections surface as 429.
func (h *SummaryHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.source.Refresh(r.Context()); err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("Manual refresh failed",
				zap.String("region", string(h.source.Region())),
				zap.Error(err))
		}
		respondWithError(w, r, apperrors.FromClientError(r.Context(), err))
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse(h.source.State()))
}

func summaryResponse(state coordinator.State) SummaryResponse {
	resp := SummaryResponse{
		Region: state.Region,
		Data:   state.Data,
		Stale:  !state.LastUpdateSuccess,
	}
	if !state.LastUpdate.IsZero() {
		last := state.LastUpdate
		resp.LastUpdate = &last
	}
	return resp
}

func noDataError(state coordinator.State) error {
	envelope := apperrors.NewServiceUnavailableError(fmt.Sprintf("no summary available yet for %s", state.Region))
	if state.LastError != nil {
		envelope, _ = envelope.WithContext(map[string]interface{}{
			"last_error": state.LastError.Error(),
		})
	}
	return envelope
}

// CoordinatorChecker reports readiness from the poller's bookkeeping:
// healthy after a successful refresh, degraded while serving stale data
// or before the first attempt, unhealthy when no data was ever fetched.
func CoordinatorChecker(source SummarySource) HealthChecker {
	return HealthCheckerFunc(func(ctx context.Context) error {
		state := source.State()
		switch {
		case state.LastUpdate.IsZero():
			return ErrDegraded
		case state.LastUpdateSuccess:
			return nil
		case state.Data != nil:
			return fmt.Errorf("serving stale data: %w", ErrDegraded)
		default:
			return fmt.Errorf("no data: %v", state.LastError)
		}
	})
}

// QuotaChecker degrades when either local quota is exhausted.
func QuotaChecker(source SummarySource) HealthChecker {
	return HealthCheckerFunc(func(ctx context.Context) error {
		usage, ok := source.Usage()
		if !ok {
			return nil
		}
		if usage.Minute.Remaining <= 0 || usage.Day.Remaining <= 0 {
			return fmt.Errorf("quota exhausted: %w", ErrDegraded)
		}
		return nil
	})
}

// Package onboarding checks a credential and region pair before it is saved.
package onboarding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
)

// Reason is a stable failure code suitable for display and exit mapping.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonInvalidKey           Reason = "invalid_key"
	ReasonSubscriptionRequired Reason = "subscription_required"
	ReasonRateLimited          Reason = "rate_limited"
	ReasonUnreachable          Reason = "unreachable"
	ReasonInvalidResponse      Reason = "invalid_response"
	ReasonUnknown              Reason = "unknown"
)

// Prober is the client surface onboarding needs.
type Prober interface {
	Region() core.Region
	FetchSummary(ctx context.Context) (*core.SummaryRecord, error)
}

// Result is the outcome of a single validation probe.
type Result struct {
	OK       bool                `json:"ok" yaml:"ok"`
	Region   core.Region         `json:"region" yaml:"region"`
	UniqueID string              `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	Title    string              `json:"title,omitempty" yaml:"title,omitempty"`
	Reason   Reason              `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message  string              `json:"message,omitempty" yaml:"message,omitempty"`
	Record   *core.SummaryRecord `json:"record,omitempty" yaml:"record,omitempty"`
	Err      error               `json:"-" yaml:"-"`
}

// Validate performs exactly one fetch and classifies the outcome.
func Validate(ctx context.Context, prober Prober) Result {
	region := prober.Region()
	result := Result{Region: region}

	record, err := prober.FetchSummary(ctx)
	if err != nil {
		result.Err = err
		result.Reason = ReasonFor(err)
		result.Message = err.Error()
		return result
	}

	result.OK = true
	result.UniqueID = string(region)
	result.Title = fmt.Sprintf("Nemy %s", region)
	result.Record = record
	return result
}

// ReasonFor maps a fetch error to an onboarding reason.
func ReasonFor(err error) Reason {
	switch client.KindOf(err) {
	case client.KindNone:
		return ReasonNone
	case client.KindRateLimited:
		return ReasonRateLimited
	case client.KindTimeout, client.KindTransport:
		return ReasonUnreachable
	case client.KindValidation:
		return ReasonInvalidResponse
	case client.KindHTTP:
		status, _ := client.StatusCodeOf(err)
		switch {
		case status == http.StatusUnauthorized:
			return ReasonInvalidKey
		case status == http.StatusForbidden:
			return ReasonSubscriptionRequired
		case status >= http.StatusInternalServerError:
			return ReasonUnreachable
		}
	}
	return ReasonUnknown
}

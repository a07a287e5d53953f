package core

import (
	"fmt"
	"strings"
)

// Region identifies a NEM market zone.
type Region string

const (
	RegionNSW Region = "NSW1"
	RegionQLD Region = "QLD1"
	RegionSA  Region = "SA1"
	RegionTAS Region = "TAS1"
	RegionVIC Region = "VIC1"
	// RegionNEM is the whole-market aggregate.
	RegionNEM Region = "NEM"
)

// Regions lists every supported region in display order.
var Regions = []Region{RegionNSW, RegionQLD, RegionSA, RegionTAS, RegionVIC, RegionNEM}

// ParseRegion normalizes and validates a user supplied region code.
func ParseRegion(value string) (Region, error) {
	normalized := Region(strings.ToUpper(strings.TrimSpace(value)))
	for _, region := range Regions {
		if region == normalized {
			return region, nil
		}
	}
	return "", fmt.Errorf("unsupported region: %q", value)
}

// Valid reports whether r is one of the enumerated regions.
func (r Region) Valid() bool {
	_, err := ParseRegion(string(r))
	return err == nil
}

// PriceCategory classifies the current household price.
type PriceCategory string

const (
	PriceFree      PriceCategory = "free"
	PriceCheap     PriceCategory = "cheap"
	PriceTypical   PriceCategory = "typical"
	PriceExpensive PriceCategory = "expensive"
	PriceSpike     PriceCategory = "spike"
)

// PriceCategories lists accepted price_category values.
var PriceCategories = []PriceCategory{PriceFree, PriceCheap, PriceTypical, PriceExpensive, PriceSpike}

// RenewablesCategory classifies the current renewables share.
type RenewablesCategory string

const (
	RenewablesExtremelyGreen     RenewablesCategory = "extremely green"
	RenewablesGreen              RenewablesCategory = "green"
	RenewablesTypical            RenewablesCategory = "typical"
	RenewablesPolluting          RenewablesCategory = "polluting"
	RenewablesExtremelyPolluting RenewablesCategory = "extremely polluting"
)

// RenewablesCategories lists accepted renewables_category values.
var RenewablesCategories = []RenewablesCategory{
	RenewablesExtremelyGreen,
	RenewablesGreen,
	RenewablesTypical,
	RenewablesPolluting,
	RenewablesExtremelyPolluting,
}

// Summary response field names.
const (
	FieldTimeInterval         = "time_interval"
	FieldPriceHousehold       = "price_household"
	FieldPriceDispatch        = "price_dispatch"
	FieldPricePercentile      = "price_percentile"
	FieldPriceCategory        = "price_category"
	FieldRenewables           = "renewables"
	FieldRenewablesNoRooftop  = "renewables_no_rooftop"
	FieldRenewablesPercentile = "renewables_percentile"
	FieldRenewablesCategory   = "renewables_category"
)

// RequiredFields are the keys every summary response must carry, in check order.
var RequiredFields = []string{
	FieldTimeInterval,
	FieldPriceHousehold,
	FieldPriceDispatch,
	FieldPricePercentile,
	FieldPriceCategory,
	FieldRenewables,
	FieldRenewablesNoRooftop,
	FieldRenewablesPercentile,
	FieldRenewablesCategory,
}

// NumericFields are the required fields that must parse as floats, in check order.
var NumericFields = []string{
	FieldPriceHousehold,
	FieldPriceDispatch,
	FieldPricePercentile,
	FieldRenewables,
	FieldRenewablesNoRooftop,
	FieldRenewablesPercentile,
}

// SummaryRecord is one validated summary response.
type SummaryRecord struct {
	TimeInterval         string             `json:"time_interval" yaml:"time_interval"`
	PriceHousehold       float64            `json:"price_household" yaml:"price_household"`
	PriceDispatch        float64            `json:"price_dispatch" yaml:"price_dispatch"`
	PricePercentile      float64            `json:"price_percentile" yaml:"price_percentile"`
	PriceCategory        PriceCategory      `json:"price_category" yaml:"price_category"`
	Renewables           float64            `json:"renewables" yaml:"renewables"`
	RenewablesNoRooftop  float64            `json:"renewables_no_rooftop" yaml:"renewables_no_rooftop"`
	RenewablesPercentile float64            `json:"renewables_percentile" yaml:"renewables_percentile"`
	RenewablesCategory   RenewablesCategory `json:"renewables_category" yaml:"renewables_category"`
}

// Fields returns the record keyed by response field name.
func (r *SummaryRecord) Fields() map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		FieldTimeInterval:         r.TimeInterval,
		FieldPriceHousehold:       r.PriceHousehold,
		FieldPriceDispatch:        r.PriceDispatch,
		FieldPricePercentile:      r.PricePercentile,
		FieldPriceCategory:        string(r.PriceCategory),
		FieldRenewables:           r.Renewables,
		FieldRenewablesNoRooftop:  r.RenewablesNoRooftop,
		FieldRenewablesPercentile: r.RenewablesPercentile,
		FieldRenewablesCategory:   string(r.RenewablesCategory),
	}
}

// Float returns the numeric field by name.
func (r *SummaryRecord) Float(field string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	switch field {
	case FieldPriceHousehold:
		return r.PriceHousehold, true
	case FieldPriceDispatch:
		return r.PriceDispatch, true
	case FieldPricePercentile:
		return r.PricePercentile, true
	case FieldRenewables:
		return r.Renewables, true
	case FieldRenewablesNoRooftop:
		return r.RenewablesNoRooftop, true
	case FieldRenewablesPercentile:
		return r.RenewablesPercentile, true
	default:
		return 0, false
	}
}

// LedgerUsage reports the state of one admission window.
type LedgerUsage struct {
	Quota     int `json:"quota" yaml:"quota"`
	Current   int `json:"current" yaml:"current"`
	Remaining int `json:"remaining" yaml:"remaining"`
}

// RateLimitUsage captures per-window ledger usage for diagnostics.
type RateLimitUsage struct {
	Minute LedgerUsage `json:"minute" yaml:"minute"`
	Day    LedgerUsage `json:"day" yaml:"day"`
}

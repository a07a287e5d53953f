package client

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nemy/nemy/internal/core"
)

// Validate checks a decoded summary payload and converts it to a record.
//
// Rules run in a fixed order and stop at the first failure: presence of all
// required fields, price category, renewables category, then each numeric
// field is parsed and range checked in turn.
func Validate(payload map[string]any) (*core.SummaryRecord, error) {
	var missing []string
	for _, field := range core.RequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Kind: ValidationMissingFields, Fields: missing}
	}

	priceCategory, err := category(payload, core.FieldPriceCategory, core.PriceCategories)
	if err != nil {
		return nil, err
	}
	renewablesCategory, err := category(payload, core.FieldRenewablesCategory, core.RenewablesCategories)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(core.NumericFields))
	for _, field := range core.NumericFields {
		value, err := parseNumber(field, payload[field])
		if err != nil {
			return nil, err
		}
		if err := checkRange(field, value); err != nil {
			return nil, err
		}
		values[field] = value
	}

	return &core.SummaryRecord{
		TimeInterval:         rawString(payload[core.FieldTimeInterval]),
		PriceHousehold:       values[core.FieldPriceHousehold],
		PriceDispatch:        values[core.FieldPriceDispatch],
		PricePercentile:      values[core.FieldPricePercentile],
		PriceCategory:        core.PriceCategory(priceCategory),
		Renewables:           values[core.FieldRenewables],
		RenewablesNoRooftop:  values[core.FieldRenewablesNoRooftop],
		RenewablesPercentile: values[core.FieldRenewablesPercentile],
		RenewablesCategory:   core.RenewablesCategory(renewablesCategory),
	}, nil
}

func category[T ~string](payload map[string]any, field string, allowed []T) (string, error) {
	raw := payload[field]
	value, ok := raw.(string)
	if ok {
		for _, candidate := range allowed {
			if string(candidate) == value {
				return value, nil
			}
		}
	}
	return "", &ValidationError{Kind: ValidationInvalidCategory, Field: field, Value: rawString(raw)}
}

func parseNumber(field string, raw any) (float64, error) {
	var (
		value float64
		err   error
	)

	switch v := raw.(type) {
	case json.Number:
		value, err = strconv.ParseFloat(v.String(), 64)
	case float64:
		value = v
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case string:
		value, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("unsupported type %T", raw)
	}

	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ValidationError{Kind: ValidationInvalidNumber, Field: field, Value: rawString(raw)}
	}
	return value, nil
}

func checkRange(field string, value float64) error {
	if strings.HasSuffix(field, "_percentile") && (value < 0 || value > 100) {
		return outOfRange(field, value)
	}

	switch {
	case field == core.FieldRenewablesNoRooftop:
		if value < -1 || value > 100 {
			return outOfRange(field, value)
		}
	case strings.HasPrefix(field, "renewables"):
		if value < -0.1 || value > 100 {
			return outOfRange(field, value)
		}
	}

	if field == core.FieldPriceHousehold && value < 0 {
		return outOfRange(field, value)
	}
	return nil
}

func outOfRange(field string, value float64) error {
	return &ValidationError{
		Kind:  ValidationOutOfRange,
		Field: field,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func rawString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

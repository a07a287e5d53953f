package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	region, err := ParseRegion(" nsw1 ")
	require.NoError(t, err)
	require.Equal(t, RegionNSW, region)

	region, err = ParseRegion("NEM")
	require.NoError(t, err)
	require.Equal(t, RegionNEM, region)

	_, err = ParseRegion("WA1")
	require.Error(t, err)
	require.False(t, Region("WA1").Valid())
	require.True(t, RegionTAS.Valid())
}

func TestSensorsIncludesPercentileAttributes(t *testing.T) {
	record := &SummaryRecord{
		PriceHousehold:       21.5,
		PricePercentile:      40,
		PriceCategory:        PriceTypical,
		Renewables:           55.2,
		RenewablesPercentile: 80,
		RenewablesCategory:   RenewablesGreen,
	}

	readings := Sensors(RegionVIC, record)
	require.Len(t, readings, len(SensorDescriptions))

	byKey := make(map[string]SensorReading, len(readings))
	for _, r := range readings {
		byKey[r.Key] = r
	}

	household := byKey[FieldPriceHousehold]
	require.Equal(t, "VIC1_price_household", household.UniqueID)
	require.Equal(t, 21.5, household.Value)
	require.Equal(t, 40.0, household.Attributes["percentile"])

	require.Equal(t, 80.0, byKey[FieldRenewables].Attributes["percentile"])
	require.Nil(t, byKey[FieldPriceDispatch].Attributes)
	require.Equal(t, "green", byKey[FieldRenewablesCategory].Value)
	require.Equal(t, "typical", byKey[FieldPriceCategory].Value)
}

func TestSensorsWithoutRecord(t *testing.T) {
	readings := Sensors(RegionSA, nil)
	for _, r := range readings {
		require.Nil(t, r.Value)
	}
}

package core

// SensorDescription describes how one summary field is presented as a sensor.
type SensorDescription struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	Unit      string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Precision int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Icon      string `json:"icon" yaml:"icon"`
	// PercentileField names the field exposed as a "percentile" attribute.
	PercentileField string `json:"-" yaml:"-"`
}

// Numeric reports whether the sensor reads a numeric field.
func (d SensorDescription) Numeric() bool {
	for _, field := range NumericFields {
		if field == d.Key {
			return true
		}
	}
	return false
}

// SensorDescriptions mirrors the read-only sensors exposed per region.
var SensorDescriptions = []SensorDescription{
	{Key: FieldPriceHousehold, Name: "Household Price", Unit: "c", Precision: 2, Icon: "mdi:currency-usd", PercentileField: FieldPricePercentile},
	{Key: FieldPriceDispatch, Name: "Dispatch Price", Unit: "$", Precision: 2, Icon: "mdi:currency-usd"},
	{Key: FieldRenewables, Name: "Renewables Percentage", Unit: "%", Precision: 1, Icon: "mdi:solar-power", PercentileField: FieldRenewablesPercentile},
	{Key: FieldRenewablesNoRooftop, Name: "Grid Renewables", Unit: "%", Precision: 1, Icon: "mdi:transmission-tower-export"},
	{Key: FieldRenewablesCategory, Name: "Renewables Category", Icon: "mdi:leaf"},
	{Key: FieldPriceCategory, Name: "Price Category", Icon: "mdi:currency-usd"},
}

// SensorReading is the presented value of one sensor.
type SensorReading struct {
	SensorDescription `yaml:",inline"`
	UniqueID          string         `json:"unique_id" yaml:"unique_id"`
	Value             any            `json:"value" yaml:"value"`
	Attributes        map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Sensors renders the record as sensor readings for a region. A nil record
// yields readings with nil values.
func Sensors(region Region, record *SummaryRecord) []SensorReading {
	readings := make([]SensorReading, 0, len(SensorDescriptions))
	for _, desc := range SensorDescriptions {
		reading := SensorReading{
			SensorDescription: desc,
			UniqueID:          string(region) + "_" + desc.Key,
		}
		if record != nil {
			switch desc.Key {
			case FieldPriceCategory:
				reading.Value = string(record.PriceCategory)
			case FieldRenewablesCategory:
				reading.Value = string(record.RenewablesCategory)
			default:
				if value, ok := record.Float(desc.Key); ok {
					reading.Value = value
				}
			}
			if desc.PercentileField != "" {
				if percentile, ok := record.Float(desc.PercentileField); ok {
					reading.Attributes = map[string]any{"percentile": percentile}
				}
			}
		}
		readings = append(readings, reading)
	}
	return readings
}

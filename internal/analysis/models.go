package analysis

import "time"

// Sample is a single time-stamped reading of one variable at one station.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a chronologically ordered run of samples for one (station, variable) pair.
// Duplicate timestamps are tolerated as-is.
type Series []Sample

// Values returns the sample values in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = sample.Value
	}
	return out
}

// Tail returns the last n samples of the series, or the whole series if it is shorter.
// The returned slice shares storage with s and must not be modified.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return nil
	}
	return s[len(s)-n:]
}

// Direction is the qualitative classification of a fitted slope.
type Direction string

const (
	DirectionAscending  Direction = "ascending"
	DirectionDescending Direction = "descending"
	DirectionStable     Direction = "stable"
	DirectionUnknown    Direction = "unknown"
)

// TrendResult describes the direction and relative size of a series trend.
type TrendResult struct {
	Direction     Direction `json:"direction"`
	PercentChange float64   `json:"percentChange"`
}

// VariableClass selects the threshold table used when evaluating alerts.
type VariableClass string

const (
	ClassTemperature VariableClass = "temperature"
	ClassHumidity    VariableClass = "humidity"
	ClassPressure    VariableClass = "pressure"
	ClassUnknown     VariableClass = "unknown"
)

// AlertCategory names the condition that triggered an alert.
type AlertCategory string

const (
	AlertHigh        AlertCategory = "high"
	AlertLow         AlertCategory = "low"
	AlertRapidChange AlertCategory = "rapid_change"
)

// Severity is the urgency attached to an alert.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityCaution Severity = "caution"
)

// Alert is the single condition raised for a series, if any.
type Alert struct {
	Category AlertCategory `json:"category"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Color    string        `json:"color"`
}

// Record is the analysis output for one (station, variable) pair.
// A nil Forecast24h or Alert means the value is absent, not that an error occurred.
type Record struct {
	Trend       TrendResult `json:"trend"`
	Forecast24h *float64    `json:"forecast24h"`
	Alert       *Alert      `json:"alert"`
}

package weather

import (
	"time"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
)

// Station is a remote weather station publishing a ThingSpeak channel feed.
type Station struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// VariableSeries is the cleaned series of one station variable.
// Name is the channel's label for the field (e.g. "Temperatura"), Field the raw column key.
type VariableSeries struct {
	Name   string          `json:"name"`
	Field  string          `json:"field"`
	Series analysis.Series `json:"series"`
}

// VariableReport is the analysis of a single station variable.
type VariableReport struct {
	Name     string                 `json:"name"`
	Field    string                 `json:"field"`
	Class    analysis.VariableClass `json:"class"`
	Samples  int                    `json:"samples"`
	Latest   *analysis.Sample       `json:"latest,omitempty"`
	Analysis analysis.Record        `json:"analysis"`
}

// StationReport bundles the analysis of every variable of a station.
type StationReport struct {
	Station     Station          `json:"station"`
	GeneratedAt time.Time        `json:"generatedAt"` // always UTC
	Variables   []VariableReport `json:"variables"`
}

// Alerts returns the alerts raised in the report, in variable order.
func (r StationReport) Alerts() []VariableReport {
	var out []VariableReport
	for _, v := range r.Variables {
		if v.Analysis.Alert != nil {
			out = append(out, v)
		}
	}
	return out
}

// AlertEvent is an alert raised during a refresh, as published to subscribers.
type AlertEvent struct {
	ID        string                 `json:"id"`
	StationID string                 `json:"stationId"`
	Variable  string                 `json:"variable"`
	Class     analysis.VariableClass `json:"class"`
	Latest    float64                `json:"latest"`
	Alert     analysis.Alert         `json:"alert"`
	RaisedAt  time.Time              `json:"raisedAt"`
}

// ChartSeries carries what a chart needs to draw one variable: the raw points,
// the fitted trend line over the trend window and the forecast point.
type ChartSeries struct {
	Station   Station              `json:"station"`
	Variable  string               `json:"variable"`
	Points    analysis.Series      `json:"points"`
	TrendLine analysis.Series      `json:"trendLine,omitempty"`
	Forecast  *analysis.Sample     `json:"forecast,omitempty"`
	Trend     analysis.TrendResult `json:"trend"`
	Alert     *analysis.Alert      `json:"alert,omitempty"`
}

// StationStatus describes a configured station and when it was last refreshed.
type StationStatus struct {
	Station     Station    `json:"station"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// RefreshSummary reports the outcome of refreshing every configured station.
type RefreshSummary struct {
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

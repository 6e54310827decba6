package weather

import (
	"context"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
)

// FeedField is one data column of a channel feed together with its channel label.
type FeedField struct {
	Key   string // e.g. "field1"
	Label string // e.g. "Temperatura"
}

// FeedRow is a raw feed entry. Values holds the cell text by field key; null cells are absent.
type FeedRow struct {
	CreatedAt string
	Values    map[string]string
}

// FeedReading is the raw, uncleaned content of a station feed.
type FeedReading struct {
	Station Station
	Fields  []FeedField
	Rows    []FeedRow
}

// Provider abstracts a remote feed source (e.g. ThingSpeak).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, stationID string) (FeedReading, error)
}

// Store is the contract the in-memory series store must satisfy.
type Store interface {
	SaveSeries(stationID string, variables []VariableSeries)
	GetSeries(stationID, variable string) (VariableSeries, error)
	ListSeries(stationID string) ([]VariableSeries, error)
}

// ReportCache holds the last computed report per station.
type ReportCache interface {
	Get(stationID string) (StationReport, bool)
	Put(report StationReport)
	Invalidate(stationID string)
	InvalidateAll()
}

// AlertPublisher forwards alerts raised during a refresh.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, events []AlertEvent) error
}

// latestSample returns a pointer to a copy of the last sample, or nil for an empty series.
func latestSample(s analysis.Series) *analysis.Sample {
	if len(s) == 0 {
		return nil
	}
	last := s[len(s)-1]
	return &last
}

package weather_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
	"github.com/frankdevcode/lp2-taller3/internal/cache"
	"github.com/frankdevcode/lp2-taller3/internal/observability"
	"github.com/frankdevcode/lp2-taller3/internal/store"
	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

var feedStart = time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

type fakeProvider struct {
	mu    sync.Mutex
	feeds map[string]weather.FeedReading
	errs  map[string]error
	calls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		feeds: map[string]weather.FeedReading{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(_ context.Context, id string) (weather.FeedReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[id]++
	if err := p.errs[id]; err != nil {
		return weather.FeedReading{}, err
	}
	return p.feeds[id], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []weather.AlertEvent
	err    error
}

func (p *fakePublisher) PublishAlerts(_ context.Context, events []weather.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// hourlyFeed builds a feed whose temperature rises by tempStep per hour from 20
// and whose humidity stays at 50.
func hourlyFeed(id string, n int, tempStep float64) weather.FeedReading {
	reading := weather.FeedReading{
		Station: weather.Station{ID: id, Name: "Station " + id},
		Fields: []weather.FeedField{
			{Key: "field1", Label: "Temperatura"},
			{Key: "field2", Label: "Humedad"},
		},
	}
	for i := 0; i < n; i++ {
		reading.Rows = append(reading.Rows, weather.FeedRow{
			CreatedAt: feedStart.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Values: map[string]string{
				"field1": strconv.FormatFloat(20+tempStep*float64(i), 'f', -1, 64),
				"field2": "50",
			},
		})
	}
	return reading
}

type fixture struct {
	svc       *weather.Service
	provider  *fakeProvider
	publisher *fakePublisher
	metrics   *observability.Metrics
	clock     *clockwork.FakeClock
}

func newFixture(stations ...string) fixture {
	f := fixture{
		provider:  newFakeProvider(),
		publisher: &fakePublisher{},
		metrics:   observability.NewMetricsForTesting(),
		clock:     clockwork.NewFakeClockAt(feedStart.Add(72 * time.Hour)),
	}
	f.svc = weather.NewService(
		store.NewMemoryStore(800, 0),
		f.provider,
		stations,
		weather.WithReportCache(cache.NewReportCacheWithClock(time.Hour, f.clock)),
		weather.WithAlertPublisher(f.publisher),
		weather.WithMetrics(f.metrics),
		weather.WithClock(f.clock),
	)
	return f
}

func TestService_UnknownStation(t *testing.T) {
	f := newFixture("159150")

	_, err := f.svc.RefreshStation(context.Background(), "999")
	assert.ErrorIs(t, err, weather.ErrUnknownStation)

	_, err = f.svc.Report("999")
	assert.ErrorIs(t, err, weather.ErrUnknownStation)

	_, err = f.svc.Chart("999", "Temperatura")
	assert.ErrorIs(t, err, weather.ErrUnknownStation)

	assert.False(t, f.svc.HasStation("999"))
	assert.True(t, f.svc.HasStation("159150"))
}

func TestService_ReportBeforeRefresh(t *testing.T) {
	f := newFixture("159150")

	_, err := f.svc.Report("159150")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_RefreshStation(t *testing.T) {
	f := newFixture("159150")
	// 20 + 0.5*47 = 43.5 at the last sample: above the 35 limit.
	f.provider.feeds["159150"] = hourlyFeed("159150", 48, 0.5)

	report, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	assert.Equal(t, "Station 159150", report.Station.Name)
	assert.Equal(t, f.clock.Now().UTC(), report.GeneratedAt)
	require.Len(t, report.Variables, 2)

	temp := report.Variables[0]
	assert.Equal(t, "Temperatura", temp.Name)
	assert.Equal(t, analysis.ClassTemperature, temp.Class)
	assert.Equal(t, 48, temp.Samples)
	require.NotNil(t, temp.Latest)
	assert.Equal(t, 43.5, temp.Latest.Value)
	assert.Equal(t, analysis.DirectionAscending, temp.Analysis.Trend.Direction)
	require.NotNil(t, temp.Analysis.Forecast24h)
	assert.Equal(t, 56.0, *temp.Analysis.Forecast24h)
	require.NotNil(t, temp.Analysis.Alert)
	assert.Equal(t, "Temperatura alta: 43.5", temp.Analysis.Alert.Message)

	hum := report.Variables[1]
	assert.Equal(t, analysis.DirectionStable, hum.Analysis.Trend.Direction)
	assert.Nil(t, hum.Analysis.Alert)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "159150", event.StationID)
	assert.Equal(t, "Temperatura", event.Variable)
	assert.Equal(t, 43.5, event.Latest)
	assert.Equal(t, analysis.AlertHigh, event.Alert.Category)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AlertsRaised.WithLabelValues("temperature", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FeedFetches.WithLabelValues("159150", "success")))

	stations := f.svc.Stations()
	require.Len(t, stations, 1)
	assert.Equal(t, "Station 159150", stations[0].Station.Name)
	require.NotNil(t, stations[0].LastRefresh)
	assert.Empty(t, stations[0].LastError)
}

func TestService_ReportIsCachedUntilRefresh(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 30, 0)

	first, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	cached, err := f.svc.Report("159150")
	require.NoError(t, err)
	assert.Equal(t, first, cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportCache.WithLabelValues("hit")))

	// New samples arrive; the refresh must replace the cached report.
	f.clock.Advance(time.Minute)
	f.provider.feeds["159150"] = hourlyFeed("159150", 40, 0)
	_, err = f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	updated, err := f.svc.Report("159150")
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Variables[0].Samples)
	assert.True(t, updated.GeneratedAt.After(first.GeneratedAt))
}

func TestService_ReportRecomputesAfterExpiry(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 30, 0)
	_, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	report, err := f.svc.Report("159150")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportCache.WithLabelValues("miss")))
	assert.Equal(t, f.clock.Now().UTC(), report.GeneratedAt)
	assert.Equal(t, 1, f.provider.calls["159150"], "a cache miss reads the store, not the feed")
}

func TestService_ClearReports(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 30, 0)
	_, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	f.svc.ClearReports()
	_, err = f.svc.Report("159150")
	require.NoError(t, err)

	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ReportCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportCache.WithLabelValues("miss")))
}

func TestService_RefreshAllIsolatesFailures(t *testing.T) {
	f := newFixture("159150", "196384", "178434")
	f.provider.feeds["159150"] = hourlyFeed("159150", 30, 0.1)
	f.provider.errs["196384"] = errors.New("connection reset")
	f.provider.feeds["178434"] = hourlyFeed("178434", 10, 0)

	summary := f.svc.RefreshAll(context.Background())

	assert.ElementsMatch(t, []string{"159150", "178434"}, summary.Refreshed)
	require.Contains(t, summary.Failed, "196384")
	assert.Contains(t, summary.Failed["196384"], "connection reset")

	_, err := f.svc.Report("178434")
	assert.NoError(t, err)

	for _, st := range f.svc.Stations() {
		if st.Station.ID == "196384" {
			assert.Nil(t, st.LastRefresh)
			assert.Contains(t, st.LastError, "connection reset")
		}
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FeedFetches.WithLabelValues("196384", "error")))
}

func TestService_RefreshAllWithoutFailures(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 5, 0)

	summary := f.svc.RefreshAll(context.Background())

	assert.Equal(t, []string{"159150"}, summary.Refreshed)
	assert.Nil(t, summary.Failed)
}

func TestService_PublishErrorDoesNotFailRefresh(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 48, 0.5)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AlertPublishErrs))
}

func TestService_Chart(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 48, 0.25)
	_, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	chart, err := f.svc.Chart("159150", "field1")
	require.NoError(t, err)

	assert.Equal(t, "Temperatura", chart.Variable)
	assert.Len(t, chart.Points, 48)
	require.Len(t, chart.TrendLine, 2)
	assert.Equal(t, chart.Points[24].Timestamp, chart.TrendLine[0].Timestamp)
	assert.Equal(t, chart.Points[47].Timestamp, chart.TrendLine[1].Timestamp)
	require.NotNil(t, chart.Forecast)
	assert.Equal(t, chart.Points[47].Timestamp.Add(24*time.Hour), chart.Forecast.Timestamp)
	// 20 + 0.25*(48+24)
	assert.Equal(t, 38.0, chart.Forecast.Value)
	assert.Equal(t, analysis.DirectionAscending, chart.Trend.Direction)

	_, err = f.svc.Chart("159150", "viento")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_ChartWithoutForecast(t *testing.T) {
	f := newFixture("159150")
	f.provider.feeds["159150"] = hourlyFeed("159150", 10, 1)
	_, err := f.svc.RefreshStation(context.Background(), "159150")
	require.NoError(t, err)

	chart, err := f.svc.Chart("159150", "Humedad")
	require.NoError(t, err)

	assert.Nil(t, chart.Forecast)
	assert.Nil(t, chart.TrendLine)
	assert.Equal(t, analysis.DirectionUnknown, chart.Trend.Direction)
}

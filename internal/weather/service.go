package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
	"github.com/frankdevcode/lp2-taller3/internal/observability"
)

// ErrUnknownStation is returned for station ids that are not configured.
var ErrUnknownStation = errors.New("station is not configured")

// defaultConcurrency bounds parallel station refreshes.
const defaultConcurrency = 4

// Service fetches station feeds, keeps their series in the store and serves
// analysis reports, caching them per station until the next refresh.
type Service struct {
	store    Store
	provider Provider
	stations []string
	ignored  []string

	cache       ReportCache
	alerts      AlertPublisher
	metrics     *observability.Metrics
	logger      *slog.Logger
	clock       clockwork.Clock
	concurrency int

	mu     sync.RWMutex
	status map[string]StationStatus
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithReportCache enables report caching.
func WithReportCache(c ReportCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithAlertPublisher forwards alerts raised during refreshes to p.
func WithAlertPublisher(p AlertPublisher) Option {
	return func(s *Service) { s.alerts = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source; tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithConcurrency bounds how many stations RefreshAll fetches at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIgnoredFields drops feed columns by key or label before storing them.
func WithIgnoredFields(fields []string) Option {
	return func(s *Service) { s.ignored = fields }
}

// NewService creates a Service for the given station ids.
func NewService(store Store, provider Provider, stations []string, opts ...Option) *Service {
	s := &Service{
		store:       store,
		provider:    provider,
		stations:    stations,
		logger:      slog.Default(),
		clock:       clockwork.NewRealClock(),
		concurrency: defaultConcurrency,
		status:      make(map[string]StationStatus, len(stations)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	for _, id := range stations {
		s.status[id] = StationStatus{Station: Station{ID: id}}
	}
	return s
}

// HasStation reports whether id is a configured station.
func (s *Service) HasStation(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.status[id]
	return ok
}

// Stations returns the configured stations in configuration order.
func (s *Service) Stations() []StationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StationStatus, 0, len(s.stations))
	for _, id := range s.stations {
		out = append(out, s.status[id])
	}
	return out
}

// RefreshStation fetches the station feed, stores its cleaned series, recomputes
// the station report and publishes any alert it raises.
func (s *Service) RefreshStation(ctx context.Context, id string) (StationReport, error) {
	if !s.HasStation(id) {
		return StationReport{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}

	start := s.clock.Now()
	reading, err := s.provider.Fetch(ctx, id)
	s.metrics.FeedFetchDuration.WithLabelValues(id).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.metrics.FeedFetches.WithLabelValues(id, "error").Inc()
		s.setStatus(id, func(st *StationStatus) { st.LastError = err.Error() })
		return StationReport{}, fmt.Errorf("fetch station %s from %s: %w", id, s.provider.Name(), err)
	}
	s.metrics.FeedFetches.WithLabelValues(id, "success").Inc()

	variables := BuildSeries(reading, s.ignored)
	s.store.SaveSeries(id, variables)

	now := s.clock.Now().UTC()
	s.setStatus(id, func(st *StationStatus) {
		st.Station = mergeStation(st.Station, reading.Station)
		st.LastRefresh = &now
		st.LastError = ""
	})
	if s.cache != nil {
		s.cache.Invalidate(id)
	}

	report, err := s.buildReport(id)
	if err != nil {
		return StationReport{}, err
	}
	if s.cache != nil {
		s.cache.Put(report)
	}

	s.publishAlerts(ctx, report)

	s.logger.Info("station refreshed",
		"station", id,
		"variables", len(report.Variables),
		"rows", len(reading.Rows),
		"alerts", len(report.Alerts()),
	)
	return report, nil
}

// RefreshAll refreshes every configured station concurrently. A failing station
// never stops the others; its error is reported in the summary.
func (s *Service) RefreshAll(ctx context.Context) RefreshSummary {
	var (
		mu      sync.Mutex
		summary = RefreshSummary{Refreshed: []string{}, Failed: map[string]string{}}
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range s.stations {
		id := id
		g.Go(func() error {
			_, err := s.RefreshStation(gCtx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("station refresh failed", "station", id, "error", err)
				summary.Failed[id] = err.Error()
				// Do not propagate; sibling stations must still refresh.
				return nil
			}
			summary.Refreshed = append(summary.Refreshed, id)
			return nil
		})
	}
	_ = g.Wait()

	if len(summary.Failed) == 0 {
		summary.Failed = nil
	}
	return summary
}

// Report returns the cached report of a station, computing it from the stored
// series on a cache miss.
func (s *Service) Report(id string) (StationReport, error) {
	if !s.HasStation(id) {
		return StationReport{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}

	if s.cache != nil {
		if report, ok := s.cache.Get(id); ok {
			s.metrics.ReportCache.WithLabelValues("hit").Inc()
			return report, nil
		}
		s.metrics.ReportCache.WithLabelValues("miss").Inc()
	}

	report, err := s.buildReport(id)
	if err != nil {
		return StationReport{}, err
	}
	if s.cache != nil {
		s.cache.Put(report)
	}
	return report, nil
}

// Chart returns the chart overlay of one station variable: its points, the trend
// line over the trend window and the forecast point DefaultHorizonHours past the
// last sample.
func (s *Service) Chart(id, variable string) (ChartSeries, error) {
	if !s.HasStation(id) {
		return ChartSeries{}, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}

	vs, err := s.store.GetSeries(id, variable)
	if err != nil {
		return ChartSeries{}, fmt.Errorf("series %s/%s: %w", id, variable, err)
	}

	record := analysis.Analyze(vs.Series, vs.Name)
	chart := ChartSeries{
		Station:   s.station(id),
		Variable:  vs.Name,
		Points:    vs.Series,
		TrendLine: analysis.TrendLine(vs.Series, analysis.DefaultTrendWindow),
		Trend:     record.Trend,
		Alert:     record.Alert,
	}
	if record.Forecast24h != nil {
		last := vs.Series[len(vs.Series)-1].Timestamp
		chart.Forecast = &analysis.Sample{
			Timestamp: last.Add(analysis.DefaultHorizonHours * time.Hour),
			Value:     *record.Forecast24h,
		}
	}
	return chart, nil
}

// ClearReports drops every cached report; the next Report call recomputes it.
func (s *Service) ClearReports() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
	s.logger.Info("report cache cleared")
}

func (s *Service) buildReport(id string) (StationReport, error) {
	variables, err := s.store.ListSeries(id)
	if err != nil {
		return StationReport{}, fmt.Errorf("series for station %s: %w", id, err)
	}

	start := s.clock.Now()
	report := StationReport{
		Station:     s.station(id),
		GeneratedAt: start.UTC(),
		Variables:   make([]VariableReport, 0, len(variables)),
	}
	for _, vs := range variables {
		s.metrics.StoredSamples.WithLabelValues(id, vs.Name).Set(float64(len(vs.Series)))
		report.Variables = append(report.Variables, VariableReport{
			Name:     vs.Name,
			Field:    vs.Field,
			Class:    analysis.ClassifyVariable(vs.Name),
			Samples:  len(vs.Series),
			Latest:   latestSample(vs.Series),
			Analysis: analysis.Analyze(vs.Series, vs.Name),
		})
	}
	s.metrics.AnalysisDuration.Observe(s.clock.Since(start).Seconds())
	return report, nil
}

func (s *Service) publishAlerts(ctx context.Context, report StationReport) {
	raised := report.Alerts()
	if len(raised) == 0 {
		return
	}

	events := make([]AlertEvent, 0, len(raised))
	for _, v := range raised {
		s.metrics.AlertsRaised.WithLabelValues(string(v.Class), string(v.Analysis.Alert.Category)).Inc()

		event := AlertEvent{
			ID:        uuid.NewString(),
			StationID: report.Station.ID,
			Variable:  v.Name,
			Class:     v.Class,
			Alert:     *v.Analysis.Alert,
			RaisedAt:  report.GeneratedAt,
		}
		if v.Latest != nil {
			event.Latest = v.Latest.Value
		}
		events = append(events, event)
	}

	if s.alerts == nil {
		return
	}
	if err := s.alerts.PublishAlerts(ctx, events); err != nil {
		s.metrics.AlertPublishErrs.Inc()
		s.logger.Error("publishing alerts failed", "station", report.Station.ID, "alerts", len(events), "error", err)
	}
}

func (s *Service) station(id string) Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[id].Station
}

func (s *Service) setStatus(id string, update func(*StationStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[id]
	update(&st)
	s.status[id] = st
}

// mergeStation keeps the configured id and fills in metadata reported by the feed.
func mergeStation(current, fetched Station) Station {
	fetched.ID = current.ID
	if fetched.Name == "" {
		fetched.Name = current.Name
	}
	return fetched
}

package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/frankdevcode/lp2-taller3/internal/analysis"
	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

var (
	// ErrNotFound is returned when no series is stored for a station or variable.
	ErrNotFound = errors.New("no series stored")
)

// StationHistory holds the series of every variable of one station, in the order
// the variables were first seen.
type StationHistory struct {
	order  []string
	series map[string]*weather.VariableSeries
}

// MemoryStore is a concurrency-safe in-memory series store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station id
	data map[string]*StationHistory

	// retention configuration
	maxHistory int           // max samples per series
	maxAge     time.Duration // optional max sample age
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, that limit is disabled.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(maxHistory, maxAge, clockwork.NewRealClock())
}

// NewMemoryStoreWithClock is NewMemoryStore with an explicit time source for age retention.
func NewMemoryStoreWithClock(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*StationHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveSeries merges freshly fetched series into the station history and enforces
// retention. Only samples newer than the last stored one are appended, so
// overlapping feed windows do not duplicate data.
func (s *MemoryStore) SaveSeries(stationID string, variables []weather.VariableSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[stationID]
	if !ok {
		history = &StationHistory{series: make(map[string]*weather.VariableSeries)}
		s.data[stationID] = history
	}

	for _, v := range variables {
		key := seriesKey(v.Name)
		stored, ok := history.series[key]
		if !ok {
			stored = &weather.VariableSeries{Name: v.Name, Field: v.Field}
			history.series[key] = stored
			history.order = append(history.order, key)
		}
		stored.Field = v.Field
		stored.Series = s.retain(merge(stored.Series, v.Series))
	}
}

// GetSeries returns a copy of one station variable, looked up by label or field key.
func (s *MemoryStore) GetSeries(stationID, variable string) (weather.VariableSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[stationID]
	if !ok {
		return weather.VariableSeries{}, ErrNotFound
	}
	if v, ok := history.series[seriesKey(variable)]; ok {
		return clone(v), nil
	}
	for _, key := range history.order {
		if v := history.series[key]; strings.EqualFold(v.Field, variable) {
			return clone(v), nil
		}
	}
	return weather.VariableSeries{}, ErrNotFound
}

// ListSeries returns copies of every series of a station.
func (s *MemoryStore) ListSeries(stationID string) ([]weather.VariableSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[stationID]
	if !ok || len(history.order) == 0 {
		return nil, ErrNotFound
	}

	out := make([]weather.VariableSeries, 0, len(history.order))
	for _, key := range history.order {
		out = append(out, clone(history.series[key]))
	}
	return out, nil
}

// retain applies count and age retention; must hold the lock.
func (s *MemoryStore) retain(series analysis.Series) analysis.Series {
	// Enforce retention by count.
	if s.maxHistory > 0 && len(series) > s.maxHistory {
		series = series[len(series)-s.maxHistory:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(series); i++ {
			if !series[i].Timestamp.Before(cutoff) {
				break
			}
		}
		series = series[i:]
	}
	return series
}

// merge appends the samples of incoming that are newer than the last stored sample.
func merge(stored, incoming analysis.Series) analysis.Series {
	if len(stored) == 0 {
		return append(analysis.Series(nil), incoming...)
	}
	last := stored[len(stored)-1].Timestamp
	for _, sample := range incoming {
		if sample.Timestamp.After(last) {
			stored = append(stored, sample)
		}
	}
	return stored
}

func clone(v *weather.VariableSeries) weather.VariableSeries {
	out := *v
	out.Series = append(analysis.Series(nil), v.Series...)
	return out
}

func seriesKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

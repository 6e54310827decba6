package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

// ReportCache keeps the last computed report of each station until it expires or
// is invalidated by a refresh. A ttl <= 0 keeps entries until invalidated.
type ReportCache struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	report   weather.StationReport
	storedAt time.Time
}

// NewReportCache creates a report cache using the real clock.
func NewReportCache(ttl time.Duration) *ReportCache {
	return NewReportCacheWithClock(ttl, clockwork.NewRealClock())
}

// NewReportCacheWithClock creates a report cache with an explicit time source.
func NewReportCacheWithClock(ttl time.Duration, clock clockwork.Clock) *ReportCache {
	return &ReportCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the cached report of a station if present and fresh.
func (c *ReportCache) Get(stationID string) (weather.StationReport, bool) {
	c.mu.RLock()
	e, ok := c.entries[stationID]
	c.mu.RUnlock()
	if !ok {
		return weather.StationReport{}, false
	}

	if c.ttl > 0 && c.clock.Since(e.storedAt) > c.ttl {
		c.mu.Lock()
		// Only drop the entry we saw; a concurrent Put may have replaced it.
		if cur, ok := c.entries[stationID]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, stationID)
		}
		c.mu.Unlock()
		return weather.StationReport{}, false
	}
	return e.report, true
}

// Put stores a report under its station id, replacing any previous one.
func (c *ReportCache) Put(report weather.StationReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[report.Station.ID] = entry{report: report, storedAt: c.clock.Now()}
}

// Invalidate drops the cached report of a station.
func (c *ReportCache) Invalidate(stationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, stationID)
}

// InvalidateAll drops every cached report.
func (c *ReportCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of cached reports, expired ones included.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

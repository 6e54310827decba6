package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

// defaultInterval is used when the configured interval is below one minute.
const defaultInterval = 15 * time.Minute

// Refresher refreshes every configured station.
type Refresher interface {
	RefreshAll(ctx context.Context) weather.RefreshSummary
}

// Scheduler periodically refreshes station feeds and their analysis.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(refresher Refresher, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if interval < time.Minute {
		interval = defaultInterval
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	s.logger.Info("scheduler: refreshing stations")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary := s.refresher.RefreshAll(ctx)
	s.logger.Info("scheduler: refresh completed",
		"refreshed", len(summary.Refreshed),
		"failed", len(summary.Failed),
	)
}

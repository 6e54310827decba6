package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

type signalRefresher struct {
	calls    chan struct{}
	deadline chan time.Time
}

func (r *signalRefresher) RefreshAll(ctx context.Context) weather.RefreshSummary {
	if d, ok := ctx.Deadline(); ok {
		r.deadline <- d
	}
	r.calls <- struct{}{}
	return weather.RefreshSummary{Refreshed: []string{"159150"}}
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	r := &signalRefresher{calls: make(chan struct{}, 1), deadline: make(chan time.Time, 1)}
	s := New(r, time.Hour, 30*time.Second, slog.Default())

	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case d := <-r.deadline:
		assert.WithinDuration(t, time.Now().Add(30*time.Second), d, 5*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not run on start")
	}
	<-r.calls
}

func TestNew_NormalizesSettings(t *testing.T) {
	s := New(&signalRefresher{}, 10*time.Second, 0, slog.Default())

	assert.Equal(t, defaultInterval, s.interval)
	assert.Equal(t, defaultInterval, s.timeout)
}

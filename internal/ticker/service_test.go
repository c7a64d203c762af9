package ticker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTicks counts invocations of each tick.
type stubTicks struct {
	minute    atomic.Int64
	hourly    atomic.Int64
	discovery atomic.Int64
}

func (s *stubTicks) Minute(ctx context.Context) (MinuteSummary, error) {
	s.minute.Add(1)
	return MinuteSummary{}, nil
}

func (s *stubTicks) Hourly(ctx context.Context) (HourlySummary, error) {
	s.hourly.Add(1)
	return HourlySummary{}, nil
}

func (s *stubTicks) Discovery(ctx context.Context) (DiscoverySummary, error) {
	s.discovery.Add(1)
	return DiscoverySummary{}, nil
}

func TestServiceLifecycle(t *testing.T) {
	ticks := &stubTicks{}
	svc := NewService(ticks, Intervals{Minute: 5 * time.Millisecond}, discardLogger())

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.StartedAt)

	svc.Start()
	st = svc.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.StartedAt)

	// Let a few minute ticks fire.
	deadline := time.Now().Add(2 * time.Second)
	for ticks.minute.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, ticks.minute.Load(), int64(2))

	svc.Stop()
	assert.False(t, svc.Status().Running)

	// No further ticks after Stop returns.
	after := ticks.minute.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.minute.Load())
}

func TestServiceStartIsIdempotent(t *testing.T) {
	ticks := &stubTicks{}
	svc := NewService(ticks, Intervals{Minute: time.Hour}, discardLogger())

	svc.Start()
	started := svc.Status().StartedAt
	svc.Start() // no-op
	assert.Equal(t, started, svc.Status().StartedAt)

	svc.Stop()
	svc.Stop() // no-op
	assert.False(t, svc.Status().Running)
}

func TestServiceRestart(t *testing.T) {
	ticks := &stubTicks{}
	svc := NewService(ticks, Intervals{Minute: time.Hour}, discardLogger())

	svc.Start()
	first := svc.Status().StartedAt
	require.NotNil(t, first)

	time.Sleep(5 * time.Millisecond)
	svc.Restart()
	second := svc.Status().StartedAt
	require.NotNil(t, second)
	assert.True(t, second.After(*first))

	svc.Stop()
}

func TestServiceZeroIntervalDisablesLoop(t *testing.T) {
	ticks := &stubTicks{}
	svc := NewService(ticks, Intervals{Minute: 5 * time.Millisecond}, discardLogger())

	svc.Start()
	time.Sleep(50 * time.Millisecond)
	svc.Stop()

	assert.Zero(t, ticks.hourly.Load(), "hourly loop disabled at zero interval")
	assert.Zero(t, ticks.discovery.Load(), "discovery loop disabled at zero interval")
}

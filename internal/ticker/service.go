package ticker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Intervals controls the tick loops. Zero duration disables a loop.
type Intervals struct {
	Minute    time.Duration
	Hourly    time.Duration
	Discovery time.Duration
}

// DefaultIntervals returns sensible production defaults.
func DefaultIntervals() Intervals {
	return Intervals{
		Minute:    time.Minute,
		Hourly:    time.Hour,
		Discovery: 6 * time.Hour,
	}
}

// Status is the externally visible service state.
type Status struct {
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Intervals struct {
		Minute    string `json:"minute"`
		Hourly    string `json:"hourly"`
		Discovery string `json:"discovery"`
	} `json:"intervals"`
}

// Service runs the tick loops. Explicit start/stop lifecycle; safe to call
// Start and Stop repeatedly.
type Service struct {
	ticks     Ticks
	intervals Intervals
	logger    *slog.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewService creates a stopped service.
func NewService(ticks Ticks, intervals Intervals, logger *slog.Logger) *Service {
	return &Service{ticks: ticks, intervals: intervals, logger: logger}
}

// Start launches the tick loops. A second Start while running is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.startedAt = time.Now()

	if s.intervals.Minute > 0 {
		s.wg.Add(1)
		go s.loop(ctx, s.intervals.Minute, "minute", func(ctx context.Context) error {
			_, err := s.ticks.Minute(ctx)
			return err
		})
	}
	if s.intervals.Hourly > 0 {
		s.wg.Add(1)
		go s.loop(ctx, s.intervals.Hourly, "hourly", func(ctx context.Context) error {
			_, err := s.ticks.Hourly(ctx)
			return err
		})
	}
	if s.intervals.Discovery > 0 {
		s.wg.Add(1)
		go s.loop(ctx, s.intervals.Discovery, "discovery", func(ctx context.Context) error {
			_, err := s.ticks.Discovery(ctx)
			return err
		})
	}

	s.logger.Info("Ticker started",
		"minute", s.intervals.Minute,
		"hourly", s.intervals.Hourly,
		"discovery", s.intervals.Discovery)
}

// Stop halts the loops and waits for in-flight ticks to finish. A Stop on a
// stopped service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Ticker stopped")
}

// Restart stops and starts the service.
func (s *Service) Restart() {
	s.Stop()
	s.Start()
}

// Status reports the current lifecycle state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Status
	st.Running = s.running
	if s.running {
		started := s.startedAt
		st.StartedAt = &started
	}
	st.Intervals.Minute = s.intervals.Minute.String()
	st.Intervals.Hourly = s.intervals.Hourly.String()
	st.Intervals.Discovery = s.intervals.Discovery.String()
	return st
}

func (s *Service) loop(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				s.logger.Error("Tick failed", "tick", name, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

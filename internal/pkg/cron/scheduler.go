package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs the background sweeps on fixed intervals. Each sweep gets
// its own goroutine and fires once immediately at startup, so a restart
// never leaves a gap between runs.
type Scheduler struct {
	mu      sync.Mutex
	sweeps  []sweep
	cancel  context.CancelFunc
	done    sync.WaitGroup
	started bool
}

type sweep struct {
	name  string
	every time.Duration
	run   func(ctx context.Context) error
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AddJob registers a sweep. Registration after Start is ignored.
func (s *Scheduler) AddJob(name string, every time.Duration, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		slog.Warn("Sweep registered after scheduler start, ignoring", "sweep", name)
		return
	}
	s.sweeps = append(s.sweeps, sweep{name: name, every: every, run: run})
	slog.Info("Sweep registered", "sweep", name, "every", every)
}

// Start launches one goroutine per registered sweep.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, sw := range s.sweeps {
		s.done.Add(1)
		go func(sw sweep) {
			defer s.done.Done()
			s.loop(ctx, sw)
		}(sw)
	}

	slog.Info("Sweep scheduler started", "sweeps", len(s.sweeps))
}

// Stop cancels all sweeps and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.done.Wait()
	slog.Info("Sweep scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, sw sweep) {
	ticker := time.NewTicker(sw.every)
	defer ticker.Stop()

	// First pass right away; a restart must not wait a full interval.
	s.fire(ctx, sw)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, sw)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, sw sweep) {
	start := time.Now()
	if err := sw.run(ctx); err != nil {
		slog.Error("Sweep failed", "sweep", sw.name, "error", err, "took", time.Since(start))
		return
	}
	slog.Debug("Sweep finished", "sweep", sw.name, "took", time.Since(start))
}

// RunOnce fires every registered sweep once, serially. Used by tests and
// by operators triggering an out-of-band pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	sweeps := make([]sweep, len(s.sweeps))
	copy(sweeps, s.sweeps)
	s.mu.Unlock()

	for _, sw := range sweeps {
		s.fire(ctx, sw)
	}
}

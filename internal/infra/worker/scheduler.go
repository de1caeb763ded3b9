// Package worker runs the periodic refresh jobs of the aggregation
// pipeline. The scheduler pauses while the consumer is inactive and
// fires one catch-up run per job on resume, so a digest that sat idle
// overnight is fresh again immediately instead of waiting out a full
// interval.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ai-digest/internal/observability/logging"
)

// ActivitySignal reports consumer activity transitions. A false value
// pauses the scheduler, a true value resumes it. AlwaysActive never
// emits and keeps the scheduler running unconditionally.
type ActivitySignal interface {
	Changes() <-chan bool
}

// AlwaysActive is an ActivitySignal that never pauses.
type AlwaysActive struct{}

// Changes implements ActivitySignal. The returned nil channel blocks
// forever.
func (AlwaysActive) Changes() <-chan bool { return nil }

// Job is one periodic refresh task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

type scheduledJob struct {
	Job
	ctrl chan bool
}

// Scheduler drives a fixed set of jobs on independent intervals.
type Scheduler struct {
	jobs []*scheduledJob

	mu      sync.Mutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for the given jobs.
func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{
		quit:   make(chan struct{}),
		logger: logger,
	}
	for _, j := range jobs {
		s.jobs = append(s.jobs, &scheduledJob{Job: j, ctrl: make(chan bool, 4)})
	}
	return s
}

// Start launches one goroutine per job. Jobs fire after their first
// full interval, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
}

// Watch consumes activity transitions until the context ends. It is
// meant to run in its own goroutine.
func (s *Scheduler) Watch(ctx context.Context, signal ActivitySignal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case active, ok := <-signal.Changes():
			if !ok {
				return
			}
			if active {
				s.Resume()
			} else {
				s.Pause()
			}
		}
	}
}

// Pause stops every job's timer. Pausing an already paused scheduler
// is a no-op.
func (s *Scheduler) Pause() {
	for _, j := range s.jobs {
		j.ctrl <- false
	}
	s.logger.Info("scheduler paused")
}

// Resume fires exactly one catch-up run per paused job and restarts
// the timers. Resuming a running scheduler is a no-op.
func (s *Scheduler) Resume() {
	for _, j := range s.jobs {
		j.ctrl <- true
	}
	s.logger.Info("scheduler resumed")
}

// Stop terminates all job goroutines and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j *scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	paused := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case active := <-j.ctrl:
			switch {
			case active && paused:
				paused = false
				s.runJob(ctx, j)
				ticker.Reset(j.Interval)
			case !active && !paused:
				ticker.Stop()
				paused = true
			}
		case <-ticker.C:
			if !paused {
				s.runJob(ctx, j)
			}
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, j *scheduledJob) {
	start := time.Now()
	j.Run(logging.WithLogger(ctx, s.logger))
	RecordJobRun(j.Name, time.Since(start))
}

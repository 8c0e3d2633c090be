// Package schedule runs maintenance jobs at fixed wall-clock times each day.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Job is one daily task.
type Job struct {
	Name string
	// At is the wall-clock {hour, minute} the job fires, in the scheduler
	// clock's location.
	At  [2]int
	Run func(ctx context.Context) error
}

// Scheduler fires each job once per day at its configured time. Each job runs
// in its own goroutine; a slow job never delays the others.
type Scheduler struct {
	clock  scoreboard.Clock
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
}

// New constructs an empty scheduler.
func New(clock scoreboard.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger.Named("schedule"),
	}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches the job loops. They stop when the context ends.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.loop(ctx, job)
		}(job)
	}
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	for {
		now := s.clock.Now()
		next := NextRun(now, job.At)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.logger.Info("running scheduled job", zap.String("job", job.Name))
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				zap.String("job", job.Name), zap.Error(err))
		}
	}
}

// NextRun computes the next occurrence of the wall-clock time strictly after
// now, in now's location.
func NextRun(now time.Time, at [2]int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at[0], at[1], 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

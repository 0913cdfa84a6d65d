// Package jobs runs periodic background tasks on tickers.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adminBackend/internal/logger"
)

// Func is one run of a job.
type Func func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       Func
}

// Scheduler runs each registered job on its own ticker. A job never overlaps
// with itself: ticks arriving during a run are dropped.
type Scheduler struct {
	jobs []job
	log  logger.Logger
	wg   sync.WaitGroup
}

func NewScheduler(log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{log: log}
}

// Add registers a job. A non-positive interval disables it.
func (s *Scheduler) Add(name string, interval time.Duration, fn Func) {
	if interval <= 0 {
		s.log.Info(fmt.Sprintf("[Scheduler] job %s disabled", name))
		return
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
}

// Len returns the number of enabled jobs.
func (s *Scheduler) Len() int { return len(s.jobs) }

// Start launches every job and returns immediately. Jobs stop when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every job loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	s.log.Info(fmt.Sprintf("[Scheduler] job %s every %s", j.name, j.interval))
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, j)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Sprintf("[Scheduler] job %s panicked: %v", j.name, r))
		}
	}()
	start := time.Now()
	if err := j.fn(ctx); err != nil {
		s.log.Error(fmt.Sprintf("[Scheduler] job %s failed after %s: %v", j.name, time.Since(start), err))
		return
	}
	s.log.Debug(fmt.Sprintf("[Scheduler] job %s done in %s", j.name, time.Since(start)))
}

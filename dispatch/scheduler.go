package dispatch

import (
	"context"
	"log"
	"time"
)

// Job is one stream run by the Scheduler, such as Dispatcher.RunCycle.
type Job func(ctx context.Context) (Summary, error)

// Scheduler reruns its jobs forever with a fixed sleep between rounds.
type Scheduler struct {
	jobs         []Job
	interval     time.Duration
	initialDelay time.Duration
	summaries    chan<- Summary
}

// NewScheduler creates a Scheduler. summaries may be nil; when set, every
// job's summary is published on it.
func NewScheduler(interval, initialDelay time.Duration, summaries chan<- Summary, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:         jobs,
		interval:     interval,
		initialDelay: initialDelay,
		summaries:    summaries,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if !sleep(ctx, s.initialDelay) {
		return
	}
	log.Printf("Scheduler: running %d job(s) every %v", len(s.jobs), s.interval)
	for {
		s.RunOnce(ctx)
		if !sleep(ctx, s.interval) {
			log.Println("Scheduler: stopping.")
			return
		}
	}
}

// RunOnce runs every job once, in order. Job errors are logged and the
// remaining jobs still run.
func (s *Scheduler) RunOnce(ctx context.Context) []Summary {
	var out []Summary
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return out
		}
		sum, err := job(ctx)
		if err != nil {
			log.Printf("Scheduler: %s cycle failed: %v", sum.Stream, err)
		}
		out = append(out, sum)
		if s.summaries == nil {
			continue
		}
		select {
		case s.summaries <- sum:
		case <-ctx.Done():
			return out
		}
	}
	return out
}

// sleep waits for d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Package scheduler runs periodic site rebuilds.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// BuildFunc performs one rebuild.
type BuildFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler running a single rebuild job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a new scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// SchedulePeriodicBuild runs build every interval, starting immediately.
// A run that is still in progress when the next tick arrives delays that
// tick instead of overlapping it. Build errors are logged; the schedule
// keeps running. ctx is handed to every run.
func (s *Scheduler) SchedulePeriodicBuild(ctx context.Context, interval time.Duration, build BuildFunc) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.execute(ctx, build)
		}),
		gocron.WithName("site-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic build job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) execute(ctx context.Context, build BuildFunc) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("Executing scheduled build")
	if err := build(ctx); err != nil {
		slog.Error("Scheduled build failed", slog.String("error", err.Error()))
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running build.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	return s.Stop()
}

package commands

import (
	"context"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/scheduler"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Interval time.Duration `help:"Rebuild interval (overrides schedule.interval)"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	interval := cfg.ScheduleInterval()
	if s.Interval > 0 {
		interval = s.Interval
	}
	if interval <= 0 {
		return ferrors.ValidationError("schedule interval must be positive").
			WithContext("interval", interval.String()).
			Build()
	}

	ctx, stop := signalContext()
	defer stop()

	runner := NewRunner(cfg)
	defer func() { _ = runner.Close() }()

	sched, err := scheduler.New()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	if _, err := sched.SchedulePeriodicBuild(ctx, interval, func(ctx context.Context) error {
		report, err := runner.Build(ctx)
		slog.Info(report.Summary(), logfields.BuildID(report.BuildID))
		return err
	}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to schedule builds").Build()
	}

	slog.Info("Scheduler started, waiting for shutdown signal", slog.Duration("interval", interval))
	if err := sched.Run(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to stop scheduler").Build()
	}
	slog.Info("Scheduler stopped")
	return nil
}

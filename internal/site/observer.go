package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
)

// Observer is notified as a build progresses. Calls are made from the
// goroutine running Build, never concurrently.
type Observer interface {
	OnBuildStart(ctx context.Context, report *Report, s *Site)
	OnStateEnter(ctx context.Context, report *Report, state, previous State, spent time.Duration)
	OnBuildComplete(ctx context.Context, report *Report, err error)
}

// HistoryObserver records the build in an event store.
type HistoryObserver struct {
	Store eventstore.Store
}

func (h *HistoryObserver) append(ctx context.Context, ev eventstore.Event, err error) {
	if err == nil {
		err = h.Store.Append(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		slog.Warn("Failed to record build event", logfields.Error(err))
	}
}

func (h *HistoryObserver) OnBuildStart(ctx context.Context, report *Report, s *Site) {
	ev, err := eventstore.NewBuildStarted(report.BuildID, report.Start, eventstore.BuildStartedMeta{
		ContentDir: s.Config.ContentPath(),
		OutputDir:  report.Output,
		Mode:       string(s.Config.Build.Mode),
		Drafts:     s.Config.Build.Drafts,
		Future:     s.Config.Build.Future,
	})
	h.append(ctx, ev, err)
}

func (h *HistoryObserver) OnStateEnter(ctx context.Context, report *Report, state, previous State, spent time.Duration) {
	ev, err := eventstore.NewStateEntered(report.BuildID, time.Now(), string(state), string(previous), spent)
	h.append(ctx, ev, err)
}

func (h *HistoryObserver) OnBuildComplete(ctx context.Context, report *Report, buildErr error) {
	if buildErr == nil {
		ev, err := eventstore.NewBuildCompleted(report.BuildID, report.End, report.Duration(), eventstore.BuildCounts{
			Documents:     report.Counts.Documents,
			DraftsSkipped: report.Counts.DraftsSkipped,
			FutureSkipped: report.Counts.FutureSkipped,
			Indexes:       report.Counts.Indexes,
			PagesWritten:  report.Counts.FilesWritten,
			FilesCopied:   report.Counts.FilesCopied,
		})
		h.append(ctx, ev, err)
		return
	}
	failedIn := StateFailed
	if n := len(report.States); n >= 2 {
		failedIn = report.States[n-2]
	}
	ev, err := eventstore.NewBuildFailed(report.BuildID, report.End, string(failedIn), buildErr.Error(), report.Failures)
	h.append(ctx, ev, err)
}

// NotifyObserver publishes the build result when the build ends.
type NotifyObserver struct {
	Notifier notify.Notifier
}

func (NotifyObserver) OnBuildStart(context.Context, *Report, *Site) {}

func (NotifyObserver) OnStateEnter(context.Context, *Report, State, State, time.Duration) {}

func (n NotifyObserver) OnBuildComplete(ctx context.Context, report *Report, _ error) {
	result := notify.BuildResult{
		BuildID:      report.BuildID,
		Outcome:      string(report.Outcome),
		FinishedAt:   report.End,
		DurationMS:   report.Duration().Milliseconds(),
		Output:       report.Output,
		Documents:    report.Counts.Documents,
		PagesWritten: report.Counts.FilesWritten,
		Failures:     report.Failures,
		Error:        report.Error,
	}
	if err := n.Notifier.Notify(context.WithoutCancel(ctx), result); err != nil {
		slog.Warn("Failed to publish build result", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}

package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	Build string `help:"Show the state timings and failures of one build"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return ferrors.ConfigError("history.database is not configured").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.ResolvePath(cfg.History.Database))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signalContext()
	defer stop()

	projection := eventstore.NewBuildHistoryProjection(store, max(h.Limit, 1))
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	if h.Build != "" {
		summary, ok := projection.GetBuild(h.Build)
		if !ok {
			return ferrors.NewError(ferrors.CategoryNotFound, "no such build").
				WithContext("build_id", h.Build).
				Build()
		}
		return writeBuildDetail(g, summary)
	}
	return writeHistoryTable(g, projection.GetHistory())
}

func writeHistoryTable(g *Global, builds []*eventstore.BuildSummary) error {
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(g.Out, "no builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tDURATION\tDOCUMENTS\tFILES\tDETAIL")
	for _, b := range builds {
		detail := "-"
		if b.Status == eventstore.StatusFailed {
			detail = "failed in " + b.FailedState
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			b.BuildID,
			b.StartedAt.Local().Format(time.DateTime),
			b.Status,
			b.Duration.Round(time.Millisecond),
			b.Counts.Documents,
			b.Counts.PagesWritten,
			detail)
	}
	return tw.Flush()
}

func writeBuildDetail(g *Global, b *eventstore.BuildSummary) error {
	out := g.Out
	_, _ = fmt.Fprintf(out, "build:    %s\n", b.BuildID)
	_, _ = fmt.Fprintf(out, "status:   %s\n", b.Status)
	_, _ = fmt.Fprintf(out, "mode:     %s\n", b.Mode)
	_, _ = fmt.Fprintf(out, "started:  %s\n", b.StartedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintf(out, "duration: %s\n", b.Duration.Round(time.Millisecond))
	if b.ErrorMessage != "" {
		_, _ = fmt.Fprintf(out, "error:    %s (in %s)\n", b.ErrorMessage, b.FailedState)
	}
	for _, f := range b.Failures {
		_, _ = fmt.Fprintf(out, "failed:   %s\n", f)
	}
	if len(b.StateTimes) > 0 {
		_, _ = fmt.Fprintln(out, "states:")
		for _, st := range []string{"loading", "indexing", "resolving", "rendering", "writing"} {
			if ms, ok := b.StateTimes[st]; ok {
				_, _ = fmt.Fprintf(out, "  %-10s %dms\n", st, ms)
			}
		}
	}
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// Runner builds a site with the integrations its configuration enables:
// a Prometheus textfile, the build history database and NATS
// notifications. Integrations that cannot be opened are logged and skipped
// so they never block publishing.
type Runner struct {
	cfg      *config.Config
	recorder *metrics.PrometheusRecorder
	textfile string
	store    eventstore.Store
	notifier notify.Notifier
}

// NewRunner opens the integrations configured in cfg.
func NewRunner(cfg *config.Config) *Runner {
	r := &Runner{cfg: cfg}
	if cfg.Metrics.Textfile != "" {
		r.textfile = cfg.ResolvePath(cfg.Metrics.Textfile)
		r.recorder = metrics.NewPrometheusRecorder(nil)
	}
	if cfg.History.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.ResolvePath(cfg.History.Database))
		if err != nil {
			slog.Warn("Build history disabled", logfields.Error(err))
		} else {
			r.store = store
		}
	}
	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", logfields.Error(err))
		} else {
			r.notifier = n
		}
	}
	return r
}

func (r *Runner) options() []site.Option {
	var opts []site.Option
	if r.recorder != nil {
		opts = append(opts, site.WithRecorder(r.recorder))
	}
	if r.store != nil {
		opts = append(opts, site.WithObserver(&site.HistoryObserver{Store: r.store}))
	}
	if r.notifier != nil {
		opts = append(opts, site.WithObserver(site.NotifyObserver{Notifier: r.notifier}))
	}
	return opts
}

// Build runs one build and exports its metrics.
func (r *Runner) Build(ctx context.Context, opts ...site.Option) (*site.Report, error) {
	report, err := site.Build(ctx, r.cfg, append(r.options(), opts...)...)
	if r.textfile != "" {
		if werr := r.recorder.WriteTextfile(r.textfile); werr != nil {
			slog.Warn("Failed to write metrics", logfields.Path(r.textfile), logfields.Error(werr))
		}
	}
	return report, err
}

// Close releases the integrations.
func (r *Runner) Close() error {
	var errs []error
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	if r.notifier != nil {
		errs = append(errs, r.notifier.Close())
	}
	return errors.Join(errs...)
}

// printReport writes the build summary and every failing page.
func printReport(g *Global, report *site.Report, err error) {
	_, _ = fmt.Fprintln(g.Out, report.Summary())
	for _, p := range report.Failures {
		_, _ = fmt.Fprintf(g.Out, "  failed: %s\n", p)
	}
	if templates.IsResolutionError(err) {
		_, _ = fmt.Fprintln(g.Out, "  hint: add the layout to the theme, or copy the built-in layouts with 'sitebuilder init --layouts'")
	}
}

// Package site assembles a static site: it loads content, builds the
// taxonomy indexes, resolves templates, renders every page on a bounded
// worker pool and publishes the result with an atomic directory swap.
//
// A build is a state machine:
//
//	Loading -> Indexing -> Resolving -> Rendering -> Writing -> Done
//
// Any state may move to Failed. Only Writing touches the output directory,
// and it does so through a sibling staging directory. The swap is two
// renames (output to <output>.prev, then staging to output), so there is a
// brief moment with no output directory. A failed or canceled build leaves
// the previously published site untouched.
package site

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/taxonomy"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// Site is the aggregate one build works on. It is created by Build, filled
// in stage by stage and discarded when the build ends.
type Site struct {
	Config  *config.Config
	BuildID string
	// Now is the reference time for future-dated documents.
	Now time.Time

	// Documents are the published documents in listing order, section
	// index files excluded.
	Documents []*content.Document
	// SectionIndexes maps a section ("" for the home page) to its _index.md.
	SectionIndexes map[string]*content.Document
	// Files are content files outside page bundles, copied verbatim.
	Files []string

	Indexes   *taxonomy.Set
	Templates *templates.Set
	Meta      *render.SiteMeta

	lastMod  content.LastModSource
	renderer *render.Renderer
	pages    []pageJob
	listings []listingJob
	outputs  *outputSet
	counts   *Counts
	recorder metrics.Recorder

	viewsMu sync.Mutex
	views   map[string]*render.PageView

	failuresMu sync.Mutex
	failures   []*render.RenderError
}

func newSite(cfg *config.Config, o *options, counts *Counts) *Site {
	return &Site{
		Config:         cfg,
		BuildID:        o.buildID,
		Now:            o.now(),
		SectionIndexes: make(map[string]*content.Document),
		lastMod:        o.lastMod,
		outputs:        newOutputSet(),
		counts:         counts,
		recorder:       o.recorder,
		views:          make(map[string]*render.PageView),
	}
}

type stageDef struct {
	State State
	Fn    func(*Site, context.Context) error
}

// Build runs a full build of cfg. The report is returned even when the
// build fails. Errors are *content.ParseError, *templates.ResolutionError,
// *render.RenderError (strict mode), *RenderFailures (lenient mode),
// *WriteError, or a canceled-category error when ctx ends first.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	o := applyOptions(opts)
	report := newReport(o.buildID, cfg.OutputPath(), time.Now())
	report.DryRun = o.dryRun
	s := newSite(cfg, o, &report.Counts)

	r := &runner{site: s, report: report, opts: o}
	err := r.run(ctx)
	return report, err
}

// runner drives the state machine for one build.
type runner struct {
	site    *Site
	report  *Report
	opts    *options
	current State
	entered time.Time
}

func (r *runner) run(ctx context.Context) error {
	stages := []stageDef{
		{StateLoading, (*Site).load},
		{StateIndexing, (*Site).index},
		{StateResolving, (*Site).resolve},
		{StateRendering, (*Site).render},
	}
	if !r.opts.dryRun {
		stages = append(stages, stageDef{StateWriting, (*Site).write})
	}

	slog.Info("Starting build",
		logfields.BuildID(r.report.BuildID),
		logfields.Output(r.report.Output),
		slog.String("mode", string(r.site.Config.Build.Mode)))
	for _, obs := range r.opts.observers {
		obs.OnBuildStart(ctx, r.report, r.site)
	}
	if err := r.site.Config.CheckDirectories(); err != nil {
		return r.fail(ctx, err)
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, canceled(st.State, err))
		}
		if err := r.enter(ctx, st.State); err != nil {
			return r.fail(ctx, err)
		}
		err := st.Fn(r.site, ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				err = canceled(st.State, ctxErr)
			}
			return r.fail(ctx, err)
		}
		r.site.recorder.IncStageResult(string(st.State), metrics.ResultSuccess)
	}

	if err := r.enter(ctx, StateDone); err != nil {
		return r.fail(ctx, err)
	}
	r.finish(ctx, OutcomeSuccess, nil)
	return nil
}

// enter moves the machine to state, closing the timing of the previous one.
func (r *runner) enter(ctx context.Context, state State) error {
	if !CanTransition(r.current, state) {
		return ferrors.InternalError("invalid build state transition").
			WithCause(&invalidTransitionError{from: r.current, to: state}).
			Build()
	}
	now := time.Now()
	previous := r.current
	var spent time.Duration
	if previous != "" {
		spent = now.Sub(r.entered)
		r.report.StateDurations[previous] += spent
		r.site.recorder.ObserveStageDuration(string(previous), spent)
	}
	r.current, r.entered = state, now
	r.report.States = append(r.report.States, state)

	slog.Debug("Entering state",
		logfields.BuildID(r.report.BuildID),
		logfields.State(string(state)),
		logfields.DurationMS(float64(spent.Microseconds())/1000))
	for _, obs := range r.opts.observers {
		obs.OnStateEnter(ctx, r.report, state, previous, spent)
	}
	return nil
}

func (r *runner) fail(ctx context.Context, err error) error {
	failedIn := r.current
	result := metrics.ResultFatal
	outcome := OutcomeFailed
	if ferrors.HasCategory(err, ferrors.CategoryCanceled) {
		result, outcome = metrics.ResultCanceled, OutcomeCanceled
	}
	if failedIn != "" {
		r.site.recorder.IncStageResult(string(failedIn), result)
	}

	var rf *RenderFailures
	if errors.As(err, &rf) {
		r.report.Failures = rf.Paths()
	} else {
		var re *render.RenderError
		if errors.As(err, &re) {
			r.report.Failures = []string{re.Path}
		}
	}

	// A failure inside enter itself must not recurse.
	if CanTransition(r.current, StateFailed) {
		_ = r.enter(ctx, StateFailed)
	}
	slog.Error("Build failed",
		logfields.BuildID(r.report.BuildID),
		logfields.State(string(failedIn)),
		logfields.Error(err))
	r.finish(ctx, outcome, err)
	return err
}

func (r *runner) finish(ctx context.Context, outcome Outcome, err error) {
	r.report.End = time.Now()
	r.report.Outcome = outcome
	if err != nil {
		r.report.Error = err.Error()
	} else {
		r.report.Manifest = r.site.buildManifest(r.report)
	}

	rec := r.site.recorder
	rec.ObserveBuildDuration(r.report.Duration())
	rec.IncBuildOutcome(metrics.BuildOutcomeLabel(outcome))
	rec.SetDocuments(r.report.Counts.Documents)
	rec.AddPagesWritten(r.report.Counts.FilesWritten)

	if err == nil {
		slog.Info("Build finished",
			logfields.BuildID(r.report.BuildID),
			logfields.Count(r.report.Counts.Documents),
			slog.Int("files", r.report.Counts.FilesWritten),
			logfields.DurationMS(float64(r.report.Duration().Milliseconds())))
	}
	for _, obs := range r.opts.observers {
		obs.OnBuildComplete(ctx, r.report, err)
	}
}

func canceled(state State, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryCanceled, "build canceled").
		WithContext("state", string(state)).
		Build()
}

package site

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Option configures a build.
type Option func(*options)

type options struct {
	now       func() time.Time
	buildID   string
	recorder  metrics.Recorder
	observers []Observer
	lastMod   content.LastModSource
	dryRun    bool
}

func defaultOptions() *options {
	return &options{
		now:      time.Now,
		recorder: metrics.NoopRecorder{},
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.buildID == "" {
		o.buildID = uuid.NewString()
	}
	return o
}

// WithClock sets the time future-dated documents are compared against.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBuildID overrides the generated build ID.
func WithBuildID(id string) Option {
	return func(o *options) { o.buildID = id }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithObserver adds a build observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLastMod sets the source of lastmod dates for documents without one.
// It takes precedence over build.git_info.
func WithLastMod(src content.LastModSource) Option {
	return func(o *options) { o.lastMod = src }
}

// WithDryRun runs every stage except Writing.
func WithDryRun() Option {
	return func(o *options) { o.dryRun = true }
}

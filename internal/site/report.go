package site

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
)

// Outcome is the final result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Counts summarises what a build loaded and produced.
type Counts struct {
	// Documents is the number of published documents, section index files excluded.
	Documents     int `json:"documents"`
	DraftsSkipped int `json:"drafts_skipped"`
	FutureSkipped int `json:"future_skipped"`
	Indexes       int `json:"indexes"`
	// Pages counts rendered HTML pages, listing pages included.
	Pages        int `json:"pages"`
	Aliases      int `json:"aliases"`
	Feeds        int `json:"feeds"`
	FilesCopied  int `json:"files_copied"`
	FilesWritten int `json:"files_written"`
}

// Report describes one build run.
type Report struct {
	BuildID string    `json:"build_id"`
	Output  string    `json:"output"`
	DryRun  bool      `json:"dry_run,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	// States lists every state entered, in order.
	States         []State                 `json:"states"`
	StateDurations map[State]time.Duration `json:"state_durations"`
	Counts         Counts                  `json:"counts"`
	// Failures are the paths of pages that failed to render.
	Failures []string `json:"failures,omitempty"`
	Outcome  Outcome  `json:"outcome"`
	Error    string   `json:"error,omitempty"`
	// Manifest is set when the build succeeds.
	Manifest *manifest.BuildManifest `json:"-"`
}

func newReport(buildID, output string, start time.Time) *Report {
	return &Report{
		BuildID:        buildID,
		Output:         output,
		Start:          start,
		StateDurations: make(map[State]time.Duration),
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Final returns the last state entered.
func (r *Report) Final() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Summary is a one-line human readable result.
func (r *Report) Summary() string {
	switch r.Outcome {
	case OutcomeSuccess:
		if r.DryRun {
			return fmt.Sprintf("check %s: %d documents, %d pages rendered in %s",
				r.BuildID, r.Counts.Documents, r.Counts.Pages, r.Duration().Round(time.Millisecond))
		}
		return fmt.Sprintf("build %s: %d documents, wrote %d files (%d pages, %d copied) in %s",
			r.BuildID, r.Counts.Documents, r.Counts.FilesWritten, r.Counts.Pages, r.Counts.FilesCopied,
			r.Duration().Round(time.Millisecond))
	case OutcomeCanceled:
		return fmt.Sprintf("build %s canceled; previous output kept", r.BuildID)
	default:
		return fmt.Sprintf("build %s failed: %s", r.BuildID, r.Error)
	}
}

package site

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{"", StateLoading, true},
		{"", StateRendering, false},
		{StateLoading, StateIndexing, true},
		{StateLoading, StateFailed, true},
		{StateLoading, StateRendering, false},
		{StateRendering, StateDone, true},
		{StateRendering, StateWriting, true},
		{StateWriting, StateDone, true},
		{StateWriting, StateLoading, false},
		{StateDone, StateFailed, false},
		{StateFailed, StateLoading, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%q -> %q", tt.from, tt.to)
	}
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateWriting.Terminal())
}

func TestInvalidTransitionError(t *testing.T) {
	err := &invalidTransitionError{to: StateWriting}
	assert.Equal(t, "invalid build state transition start -> writing", err.Error())
}

func TestRenderFailures(t *testing.T) {
	cause := errors.New("boom")
	rf := &RenderFailures{Failures: []*render.RenderError{
		{Path: "a.md", Directive: "x", Err: cause},
		{Path: "b.md", Err: cause},
	}}
	assert.Equal(t, []string{"a.md", "b.md"}, rf.Paths())
	assert.ErrorIs(t, rf, cause)
	assert.Contains(t, rf.Error(), "2 page(s) failed to render")
	assert.Contains(t, rf.Error(), `render a.md: directive "x": boom`)
}

func TestReportSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newReport("b1", "/out", start)
	r.End = start.Add(1500 * time.Millisecond)
	r.Outcome = OutcomeSuccess
	r.Counts = Counts{Documents: 3, Pages: 7, FilesWritten: 9, FilesCopied: 2}
	assert.Equal(t, "build b1: 3 documents, wrote 9 files (7 pages, 2 copied) in 1.5s", r.Summary())

	r.DryRun = true
	assert.Equal(t, "check b1: 3 documents, 7 pages rendered in 1.5s", r.Summary())

	r.Outcome, r.Error = OutcomeFailed, "parse x.md: bad"
	assert.Equal(t, "build b1 failed: parse x.md: bad", r.Summary())

	r.Outcome = OutcomeCanceled
	assert.Equal(t, "build b1 canceled; previous output kept", r.Summary())
}

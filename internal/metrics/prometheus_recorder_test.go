package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("rendering", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("rendering", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.SetDocuments(3)
	pr.AddPagesWritten(7)
	pr.IncRenderFailure()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["sitebuilder_pages_written_total"])
	assert.True(t, names["sitebuilder_stage_duration_seconds"])
	assert.True(t, names["sitebuilder_documents"])
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.AddPagesWritten(4)

	path := filepath.Join(t.TempDir(), "sitebuilder.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "sitebuilder_pages_written_total 4"))
}

func TestRecorders_SatisfyInterface(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)

	var nilRecorder *PrometheusRecorder
	assert.NotPanics(t, func() {
		nilRecorder.AddPagesWritten(1)
		nilRecorder.IncBuildOutcome(BuildOutcomeFailed)
		assert.NoError(t, nilRecorder.WriteTextfile("unused"))
	})
}

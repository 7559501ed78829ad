package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, store Store, events ...Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, store.Append(t.Context(), ev))
	}
}

func must[E Event](t *testing.T) func(E, error) Event {
	return func(e E, err error) Event {
		t.Helper()
		require.NoError(t, err)
		return e
	}
}

func TestProjection_RebuildFromStore(t *testing.T) {
	store := newMemoryStore(t)

	appendAll(t, store,
		must[*BuildStarted](t)(NewBuildStarted("ok", t0, BuildStartedMeta{Mode: "strict"})),
		must[*StateEntered](t)(NewStateEntered("ok", t0.Add(time.Second), "indexing", "loading", 800*time.Millisecond)),
		must[*BuildCompleted](t)(NewBuildCompleted("ok", t0.Add(2*time.Second), 2*time.Second, BuildCounts{Documents: 3, PagesWritten: 9})),

		must[*BuildStarted](t)(NewBuildStarted("bad", t0.Add(time.Minute), BuildStartedMeta{Mode: "lenient"})),
		must[*BuildFailed](t)(NewBuildFailed("bad", t0.Add(time.Minute+time.Second), "rendering", "2 pages failed", []string{"a.md", "b.md"})),

		must[*BuildStarted](t)(NewBuildStarted("running", t0.Add(2*time.Minute), BuildStartedMeta{})),
	)

	p := NewBuildHistoryProjection(store, 10)
	require.NoError(t, p.Rebuild(t.Context()))

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "bad", history[0].BuildID)
	assert.Equal(t, "ok", history[1].BuildID)

	ok := history[1]
	assert.Equal(t, StatusCompleted, ok.Status)
	assert.Equal(t, "strict", ok.Mode)
	assert.Equal(t, 9, ok.Counts.PagesWritten)
	assert.Equal(t, 2*time.Second, ok.Duration)
	assert.Equal(t, int64(800), ok.StateTimes["loading"])

	bad := history[0]
	assert.Equal(t, StatusFailed, bad.Status)
	assert.Equal(t, "rendering", bad.FailedState)
	assert.Equal(t, []string{"a.md", "b.md"}, bad.Failures)

	running, found := p.GetBuild("running")
	require.True(t, found)
	assert.Equal(t, StatusRunning, running.Status)

	assert.Equal(t, "bad", p.GetLastCompletedBuild().BuildID)
	assert.False(t, p.LastSyncTime().IsZero())
}

func TestProjection_BoundedHistory(t *testing.T) {
	store := newMemoryStore(t)
	p := NewBuildHistoryProjection(store, 2)

	for i, id := range []string{"one", "two", "three"} {
		at := t0.Add(time.Duration(i) * time.Minute)
		p.Apply(must[*BuildStarted](t)(NewBuildStarted(id, at, BuildStartedMeta{})))
		p.Apply(must[*BuildCompleted](t)(NewBuildCompleted(id, at.Add(time.Second), time.Second, BuildCounts{})))
	}

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "three", history[0].BuildID)
	assert.Equal(t, "two", history[1].BuildID)

	_, found := p.GetBuild("one")
	assert.False(t, found)
}

func TestProjection_EmptyStore(t *testing.T) {
	p := NewBuildHistoryProjection(newMemoryStore(t), 0)
	require.NoError(t, p.Rebuild(t.Context()))
	assert.Empty(t, p.GetHistory())
	assert.Nil(t, p.GetLastCompletedBuild())
}

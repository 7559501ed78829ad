package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const testBuildID = "build-123"

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndRetrieve(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, NewEvent(testBuildID, "TestEvent", t0, []byte(`{"test":"data"}`))))

	events, err := store.ForBuild(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, testBuildID, got.BuildID())
	assert.Equal(t, "TestEvent", got.Type())
	assert.Equal(t, `{"test":"data"}`, string(got.Payload()))
	assert.True(t, got.Timestamp().Equal(t0))
	assert.Positive(t, got.Seq())

	var decoded map[string]string
	require.NoError(t, got.Decode(&decoded))
	assert.Equal(t, "data", decoded["test"])
}

func TestSQLiteStore_Between(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	for i := range 3 {
		ev, err := NewStateEntered("build-1", t0.Add(time.Duration(i)*time.Hour), "loading", "", 0)
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, ev))
	}

	events, err := store.Between(ctx, t0.Add(-time.Minute), t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSQLiteStore_MultipleBuilds(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	for _, id := range []string{"build-1", "build-2", "build-1"} {
		ev, err := NewBuildStarted(id, t0, BuildStartedMeta{Mode: "strict"})
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, ev))
	}

	events, err := store.ForBuild(ctx, "build-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.ForBuild(ctx, "build-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSQLiteStore_EmptyPayloadStoredAsObject(t *testing.T) {
	store := newMemoryStore(t)
	require.NoError(t, store.Append(t.Context(), NewEvent("b", "Ping", time.Time{}, nil)))

	events, err := store.ForBuild(t.Context(), "b")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, "{}", string(events[0].Payload()))
	assert.False(t, events[0].Timestamp().IsZero())
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	ev, err := NewBuildStarted("b", t0, BuildStartedMeta{})
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), ev))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.ForBuild(t.Context(), "b")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSQLiteStore_ErrorsAreClassified(t *testing.T) {
	store := newMemoryStore(t)
	require.NoError(t, store.Close())

	_, err := store.ForBuild(t.Context(), "x")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryEventStore, ferrors.GetCategory(err))
}

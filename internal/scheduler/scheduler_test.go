package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	id, err := s.SchedulePeriodicBuild(ctx, 50*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("ignored")
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	_, err = s.SchedulePeriodicBuild(t.Context(), 0, func(context.Context) error { return nil })
	require.Error(t, err)
	require.NoError(t, s.Stop())
}

func TestScheduler_RunReturnsOnCancel(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

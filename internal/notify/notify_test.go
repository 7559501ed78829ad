package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	flushed    bool
	closed     bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func TestNATSNotifier_PublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	n := newNATSNotifier(fc, "")

	result := BuildResult{
		BuildID:      "b-1",
		Outcome:      "success",
		FinishedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		PagesWritten: 12,
	}
	require.NoError(t, n.Notify(t.Context(), result))

	assert.Equal(t, DefaultSubject, fc.subject)
	assert.True(t, fc.flushed)

	var decoded BuildResult
	require.NoError(t, json.Unmarshal(fc.data, &decoded))
	assert.Equal(t, result, decoded)

	require.NoError(t, n.Close())
	assert.True(t, fc.closed)
}

func TestNATSNotifier_PublishError(t *testing.T) {
	n := newNATSNotifier(&fakeConn{publishErr: errors.New("no responders")}, "builds")
	err := n.Notify(t.Context(), BuildResult{BuildID: "b"})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryNotify, ferrors.GetCategory(err))
}

func TestNewNATSNotifier_Unreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryNotify, ferrors.GetCategory(err))
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(t.Context(), BuildResult{}))
	assert.NoError(t, n.Close())
}

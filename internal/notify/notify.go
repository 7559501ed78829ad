// Package notify publishes build results to a message bus.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitebuilder.builds"

// BuildResult is the message published after every build.
type BuildResult struct {
	BuildID      string    `json:"build_id"`
	Outcome      string    `json:"outcome"`
	FinishedAt   time.Time `json:"finished_at"`
	DurationMS   int64     `json:"duration_ms"`
	Output       string    `json:"output"`
	Documents    int       `json:"documents"`
	PagesWritten int       `json:"pages_written"`
	Failures     []string  `json:"failures,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Notifier delivers build results.
type Notifier interface {
	Notify(ctx context.Context, result BuildResult) error
	Close() error
}

// Nop discards every result.
type Nop struct{}

func (Nop) Notify(context.Context, BuildResult) error { return nil }
func (Nop) Close() error                              { return nil }

// conn is the subset of *nats.Conn the notifier needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes results as JSON on a NATS subject.
type NATSNotifier struct {
	conn    conn
	subject string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("sitebuilder"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS notifier connected", slog.String("url", url), slog.String("subject", subject))
	return newNATSNotifier(nc, subject), nil
}

func newNATSNotifier(c conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{conn: c, subject: subject}
}

// Notify publishes result and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, result BuildResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to marshal build result").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to publish build result").
			WithContext("subject", n.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "failed to flush build result").
			WithContext("subject", n.subject).
			Build()
	}

	slog.Debug("Published build result", logfields.BuildID(result.BuildID), slog.String("outcome", result.Outcome))
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}

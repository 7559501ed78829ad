// Package eventstore persists build history as an append-only event log.
package eventstore

import (
	"context"
	"time"
)

// Store appends build events and reads them back in append order.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ForBuild returns the events of one build.
	ForBuild(ctx context.Context, buildID string) ([]Event, error)
	// Between returns events with start <= timestamp <= end.
	Between(ctx context.Context, start, end time.Time) ([]Event, error)
	Close() error
}

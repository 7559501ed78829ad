package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Build statuses reported by the history projection.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model summarizing a completed or in-progress build.
type BuildSummary struct {
	BuildID      string           `json:"build_id"`
	Status       string           `json:"status"`
	Mode         string           `json:"mode,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Duration     time.Duration    `json:"duration,omitempty"`
	LastState    string           `json:"last_state,omitempty"`
	Counts       BuildCounts      `json:"counts"`
	FailedState  string           `json:"failed_state,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Failures     []string         `json:"failures,omitempty"`
	StateTimes   map[string]int64 `json:"state_times_ms,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from events stored in the event store.
type BuildHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	builds   map[string]*BuildSummary
	history  []*BuildSummary // finished builds, newest first
	maxSize  int
	lastSync time.Time
}

// NewBuildHistoryProjection creates a new projection backed by the given store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		history: make([]*BuildSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.Between(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = make([]*BuildSummary, 0, p.maxSize)

	for _, event := range events {
		p.applyEventLocked(event)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneBuildsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{
			BuildID:   buildID,
			Status:    StatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = StatusRunning
		var meta BuildStartedMeta
		if err := event.Decode(&meta); err == nil {
			summary.Mode = meta.Mode
		}

	case TypeStateEntered:
		var payload struct {
			State      string `json:"state"`
			Previous   string `json:"previous"`
			DurationMS int64  `json:"duration_ms"`
		}
		if err := event.Decode(&payload); err == nil {
			summary.LastState = payload.State
			if payload.Previous != "" {
				if summary.StateTimes == nil {
					summary.StateTimes = make(map[string]int64)
				}
				summary.StateTimes[payload.Previous] += payload.DurationMS
			}
		}

	case TypeBuildCompleted:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Status = StatusCompleted
		var payload struct {
			DurationMS int64       `json:"duration_ms"`
			Counts     BuildCounts `json:"counts"`
		}
		if err := event.Decode(&payload); err == nil {
			summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
			summary.Counts = payload.Counts
		}
		p.addToHistoryLocked(summary)

	case TypeBuildFailed:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = StatusFailed
		var payload struct {
			State    string   `json:"state"`
			Error    string   `json:"error"`
			Failures []string `json:"failures"`
		}
		if err := event.Decode(&payload); err == nil {
			summary.FailedState = payload.State
			summary.ErrorMessage = payload.Error
			summary.Failures = payload.Failures
		}
		p.addToHistoryLocked(summary)
	}
}

// addToHistoryLocked adds a finished build to history if not already present.
func (p *BuildHistoryProjection) addToHistoryLocked(summary *BuildSummary) {
	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}

	p.history = append([]*BuildSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneBuildsLocked()
}

// pruneBuildsLocked removes finished builds not present in the bounded
// history. Caller must hold p.mu (write lock).
func (p *BuildHistoryProjection) pruneBuildsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, summary := range p.builds {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// GetHistory returns finished builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*BuildSummary, len(p.history))
	copy(result, p.history)
	return result
}

// GetBuild returns a copy of the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.builds[buildID]
	if !exists {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// GetLastCompletedBuild returns the most recently finished build (success or failure).
func (p *BuildHistoryProjection) GetLastCompletedBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return nil
	}
	cp := *p.history[0]
	return &cp
}

// LastSyncTime returns when the projection was last synchronized.
func (p *BuildHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

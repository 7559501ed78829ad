package eventstore

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStateEntered   = "StateEntered"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

// BuildStartedMeta describes how a build was invoked.
type BuildStartedMeta struct {
	ContentDir string `json:"content_dir"`
	OutputDir  string `json:"output_dir"`
	Mode       string `json:"mode"`
	Drafts     bool   `json:"drafts"`
	Future     bool   `json:"future"`
}

// BuildStarted is emitted when a build begins.
type BuildStarted struct {
	header
	Meta BuildStartedMeta `json:"meta"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, at time.Time, meta BuildStartedMeta) (*BuildStarted, error) {
	payload, err := marshalPayload(buildID, TypeBuildStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{
		header: newHeader(buildID, TypeBuildStarted, at, payload),
		Meta:   meta,
	}, nil
}

// StateEntered is emitted on every build state transition.
type StateEntered struct {
	header
	State string `json:"state"`
	// Previous is the state left, with its time spent.
	Previous string        `json:"previous,omitempty"`
	Duration time.Duration `json:"-"`
}

// NewStateEntered creates a StateEntered event.
func NewStateEntered(buildID string, at time.Time, state, previous string, spent time.Duration) (*StateEntered, error) {
	payload, err := marshalPayload(buildID, TypeStateEntered, map[string]any{
		"state":       state,
		"previous":    previous,
		"duration_ms": spent.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &StateEntered{
		header:   newHeader(buildID, TypeStateEntered, at, payload),
		State:    state,
		Previous: previous,
		Duration: spent,
	}, nil
}

// BuildCounts summarises what a build produced.
type BuildCounts struct {
	Documents      int `json:"documents"`
	DraftsSkipped  int `json:"drafts_skipped"`
	FutureSkipped  int `json:"future_skipped"`
	Indexes        int `json:"indexes"`
	PagesWritten   int `json:"pages_written"`
	FilesCopied    int `json:"files_copied"`
	RenderFailures int `json:"render_failures"`
}

// BuildCompleted is emitted when a build published its output.
type BuildCompleted struct {
	header
	Duration time.Duration `json:"-"`
	Counts   BuildCounts   `json:"counts"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, at time.Time, duration time.Duration, counts BuildCounts) (*BuildCompleted, error) {
	payload, err := marshalPayload(buildID, TypeBuildCompleted, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"counts":      counts,
	})
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{
		header:   newHeader(buildID, TypeBuildCompleted, at, payload),
		Duration: duration,
		Counts:   counts,
	}, nil
}

// BuildFailed is emitted when a build ended without publishing.
type BuildFailed struct {
	header
	State    string   `json:"state"`
	Error    string   `json:"error"`
	Failures []string `json:"failures,omitempty"`
}

// NewBuildFailed creates a BuildFailed event. state is the state the build
// failed in; failures lists the paths of pages that failed to render.
func NewBuildFailed(buildID string, at time.Time, state, errorMsg string, failures []string) (*BuildFailed, error) {
	payload, err := marshalPayload(buildID, TypeBuildFailed, map[string]any{
		"state":    state,
		"error":    errorMsg,
		"failures": failures,
	})
	if err != nil {
		return nil, err
	}
	return &BuildFailed{
		header:   newHeader(buildID, TypeBuildFailed, at, payload),
		State:    state,
		Error:    errorMsg,
		Failures: failures,
	}, nil
}

func marshalPayload(buildID, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEventStore, "failed to marshal "+eventType+" payload").
			WithContext("build_id", buildID).
			Build()
	}
	return payload, nil
}

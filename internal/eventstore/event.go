package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one entry of the build log. Seq is assigned by the store and is
// zero until the event has been read back.
type Event interface {
	Seq() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
	// Decode unmarshals the JSON payload into v.
	Decode(v any) error
}

// NewEvent creates an event with a raw JSON payload.
func NewEvent(buildID, eventType string, at time.Time, payload []byte) Event {
	h := newHeader(buildID, eventType, at, payload)
	return &h
}

// header holds the fields every event kind shares. Events read back from a
// store are bare headers.
type header struct {
	seq     int64
	buildID string
	kind    string
	at      time.Time
	payload []byte
}

func newHeader(buildID, eventType string, at time.Time, payload []byte) header {
	return header{buildID: buildID, kind: eventType, at: at, payload: payload}
}

func (h *header) Seq() int64           { return h.seq }
func (h *header) BuildID() string      { return h.buildID }
func (h *header) Type() string         { return h.kind }
func (h *header) Timestamp() time.Time { return h.at }
func (h *header) Payload() []byte      { return h.payload }

func (h *header) Decode(v any) error { return json.Unmarshal(h.payload, v) }

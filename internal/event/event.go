// Package event defines the progress records streamed to the caller while a
// request runs, and their newline-delimited JSON wire form. Events for one
// request form a total order by sequence number; a complete or error event is
// always last and nothing follows it.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind tags an event. The set is closed; decoders reject anything else.
type Kind string

const (
	KindStatus   Kind = "status"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// Event is one record in the progress stream for a single request.
type Event struct {
	Seq     int             `json:"seq"`
	Kind    Kind            `json:"kind"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Terminal reports whether no event may follow this one.
func (e Event) Terminal() bool { return e.Kind == KindComplete || e.Kind == KindError }

// IngestResult is the payload of an ingestion complete event.
type IngestResult struct {
	ChunkCount int    `json:"chunk_count"`
	Summary    string `json:"summary,omitempty"`
}

// AnswerResult is the payload of a chat complete event.
type AnswerResult struct {
	Answer string `json:"answer"`
}

// Marshal encodes the event as one newline-terminated JSON record.
func Marshal(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a single record (without the trailing newline) and
// validates the closed kind set and the sequence number.
func Unmarshal(line []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return Event{}, fmt.Errorf("malformed event record: %w", err)
	}
	switch e.Kind {
	case KindStatus, KindError, KindComplete:
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Seq <= 0 {
		return Event{}, fmt.Errorf("invalid event sequence %d", e.Seq)
	}
	return e, nil
}

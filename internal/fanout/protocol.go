package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	League    string          `json:"league,omitempty"`
	FixtureID int             `json:"fixture_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		League:    evt.League,
		FixtureID: evt.FixtureID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		League:    env.League,
		FixtureID: env.FixtureID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventFixtureResult:
		var res scan.Result
		if err := json.Unmarshal(env.Payload, &res); err != nil {
			return evt, fmt.Errorf("unmarshal fixture_result: %w", err)
		}
		evt.Payload = &res
	case events.EventFixtureSkip:
		var skip scan.Skip
		if err := json.Unmarshal(env.Payload, &skip); err != nil {
			return evt, fmt.Errorf("unmarshal fixture_skip: %w", err)
		}
		evt.Payload = &skip
	case events.EventScanStarted:
		evt.Payload = nil
	case events.EventScanComplete:
		var rep scan.Report
		if err := json.Unmarshal(env.Payload, &rep); err != nil {
			return evt, fmt.Errorf("unmarshal scan_complete: %w", err)
		}
		evt.Payload = &rep
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}

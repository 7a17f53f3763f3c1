package events

import "time"

// Event is the envelope that flows through the event bus. Every scan
// lifecycle event (scan started, per-fixture result or skip, scan complete)
// is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	League    string
	FixtureID int
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	EventScanStarted   EventType = "scan_started"
	EventFixtureResult EventType = "fixture_result"
	EventFixtureSkip   EventType = "fixture_skip"
	EventScanComplete  EventType = "scan_complete"
)

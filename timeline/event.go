// Package timeline models the discrete, independently timestamped events an
// analysis produces alongside its frame stream: beats, transients, section
// boundaries, silences.
//
// Events are append-only while the analysis job runs and immutable after it
// commits; a correction requires a new analysis. Queries always return events
// ordered by time ascending, ties broken by insertion order.
package timeline

import (
	"encoding/json"
	"fmt"
)

// EventType is a closed tagged-variant set. Free-form producer strings are
// rejected at append time rather than stored as-is.
type EventType string

const (
	Transient    EventType = "transient"
	Beat         EventType = "beat"
	Downbeat     EventType = "downbeat"
	SectionStart EventType = "section_start"
	SectionEnd   EventType = "section_end"
	Peak         EventType = "peak"
	Silence      EventType = "silence"
	Custom       EventType = "custom"
)

// Valid reports whether t is a member of the declared set.
func (t EventType) Valid() bool {
	switch t {
	case Transient, Beat, Downbeat, SectionStart, SectionEnd, Peak, Silence, Custom:
		return true
	default:
		return false
	}
}

// RequiresDuration reports whether the type is interval-like. Sections are
// paired point events (section_start/section_end), so the only built-in
// interval type is silence.
func (t EventType) RequiresDuration() bool { return t == Silence }

// Event is one discrete occurrence on the analysis timeline.
type Event struct {
	Type       EventType       `json:"type"`
	TimeMS     int             `json:"time_ms"`
	DurationMS *int            `json:"duration_ms,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// ErrInvalidEvent indicates a producer-supplied event that violates the
// variant contract.
type ErrInvalidEvent struct {
	Reason string
}

func (e *ErrInvalidEvent) Error() string { return "invalid event: " + e.Reason }

// Validate checks the event against the variant contract.
func Validate(e Event) error {
	if !e.Type.Valid() {
		return &ErrInvalidEvent{Reason: fmt.Sprintf("unknown event type %q", e.Type)}
	}
	if e.TimeMS < 0 {
		return &ErrInvalidEvent{Reason: fmt.Sprintf("negative time_ms %d", e.TimeMS)}
	}
	if e.Type.RequiresDuration() && e.DurationMS == nil {
		return &ErrInvalidEvent{Reason: fmt.Sprintf("event type %q requires duration_ms", e.Type)}
	}
	if e.DurationMS != nil && *e.DurationMS < 0 {
		return &ErrInvalidEvent{Reason: fmt.Sprintf("negative duration_ms %d", *e.DurationMS)}
	}
	if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
		return &ErrInvalidEvent{Reason: fmt.Sprintf("confidence %v outside [0,1]", *e.Confidence)}
	}
	return nil
}

package audit

import (
	"encoding/json"
	"time"
)

// EventType classifies audit events.
type EventType string

const (
	EventTypeCheck        EventType = "authz.check"
	EventTypeCommandBit   EventType = "mask.command_bit"
	EventTypeBoundingBit  EventType = "mask.bounding_bit"
	EventTypeRuleGranted  EventType = "rule.granted"
	EventTypeRuleRevoked  EventType = "rule.revoked"
	EventTypeGroupAdded   EventType = "group.member_added"
	EventTypeGroupRemoved EventType = "group.member_removed"
	EventTypeRulesSweep   EventType = "rule.sweep"
)

// EventStatus is the outcome of the audited operation.
type EventStatus string

const (
	EventStatusAllowed EventStatus = "allowed"
	EventStatusDenied  EventStatus = "denied"
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
)

// Event is a single audit trail entry.
type Event struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	EventType  EventType              `json:"event_type"`
	Status     EventStatus            `json:"status"`
	ActorID    int64                  `json:"actor_id,omitempty"`
	ChatID     int64                  `json:"chat_id,omitempty"`
	Command    string                 `json:"command,omitempty"`
	Rule       string                 `json:"rule,omitempty"`
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   int64                  `json:"target_id,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON serializes the event.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an event.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Logger records audit events.
type Logger interface {
	Log(event *Event) error
	Close() error
}

// NopLogger discards all events.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(*Event) error { return nil }

// Close implements Logger.
func (NopLogger) Close() error { return nil }

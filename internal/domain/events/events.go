// Package events defines the event types streamed to viewer clients.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// EventTypeConnected is sent once to each client immediately after
	// its stream opens, so clients can tell "stream open, no updates
	// yet" apart from "stream never opened".
	EventTypeConnected EventType = "connected"

	// EventTypeTaskUpdate signals a change to a task file. Clients are
	// expected to re-query the session; the event carries no task data.
	EventTypeTaskUpdate EventType = "update"

	// EventTypeTeamUpdate signals a change under one team's directory.
	EventTypeTeamUpdate EventType = "team-update"

	// EventTypeMetadataUpdate signals a change anywhere under the
	// projects root; the whole metadata mapping may be stale.
	EventTypeMetadataUpdate EventType = "metadata-update"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType   `json:"event"`
	EventTime time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type and payload.
func NewEvent(eventType EventType, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// FileChangeKind classifies what happened to a watched file.
type FileChangeKind string

const (
	FileChangeCreated  FileChangeKind = "created"
	FileChangeModified FileChangeKind = "modified"
	FileChangeDeleted  FileChangeKind = "deleted"
)

// TaskUpdatePayload is the payload for update events.
type TaskUpdatePayload struct {
	SessionID string         `json:"session_id"`
	Kind      FileChangeKind `json:"kind"`
	File      string         `json:"file"`
}

// TeamUpdatePayload is the payload for team-update events.
type TeamUpdatePayload struct {
	TeamName string `json:"team_name"`
}

// ConnectedPayload is the payload for the initial connected event.
type ConnectedPayload struct {
	ClientID string `json:"client_id"`
}

// NewTaskUpdateEvent creates an update event for a changed task file.
func NewTaskUpdateEvent(sessionID string, kind FileChangeKind, file string) *BaseEvent {
	return NewEvent(EventTypeTaskUpdate, TaskUpdatePayload{
		SessionID: sessionID,
		Kind:      kind,
		File:      file,
	})
}

// NewTeamUpdateEvent creates a team-update event for a changed team config.
func NewTeamUpdateEvent(teamName string) *BaseEvent {
	return NewEvent(EventTypeTeamUpdate, TeamUpdatePayload{TeamName: teamName})
}

// NewMetadataUpdateEvent creates a metadata-update event.
func NewMetadataUpdateEvent() *BaseEvent {
	return NewEvent(EventTypeMetadataUpdate, nil)
}

// NewConnectedEvent creates the synthetic event sent on stream open.
func NewConnectedEvent(clientID string) *BaseEvent {
	return NewEvent(EventTypeConnected, ConnectedPayload{ClientID: clientID})
}

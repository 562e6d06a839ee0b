package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/collabhq/collabboard/internal/domain"
)

// EventType names a frame on the realtime stream.
type EventType string

const (
	// Client -> server.
	EventJoin  EventType = "join"
	EventLeave EventType = "leave"

	// Bidirectional: sent by clients, fanned out to rooms.
	EventChatMessage      EventType = "chat_message"
	EventWhiteboardUpdate EventType = "whiteboard_update"

	// Server -> room, emitted when the REST layer mutates a task.
	EventTaskUpdate  EventType = "task_update"
	EventTaskDeleted EventType = "task_deleted"

	// Server -> client.
	EventStatus EventType = "status"
	EventError  EventType = "error"
)

// Event is the wire frame exchanged over a session channel. Payload contents
// depend on Type; the whiteboard canvas state inside a payload is opaque and
// passed through without interpretation.
type Event struct {
	Type    EventType       `json:"type"`
	BoardID uuid.UUID       `json:"board_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an Event with a marshaled payload.
func NewEvent(eventType EventType, boardID uuid.UUID, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("ws.NewEvent: marshal %s payload: %w", eventType, err)
	}

	return Event{Type: eventType, BoardID: boardID, Payload: raw}, nil
}

// ChatPayload carries a chat message. Clients send only Message; the server
// stamps identity and receipt time before fan-out.
type ChatPayload struct {
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// WhiteboardPayload carries a full canvas snapshot. Every snapshot replaces
// the receiver's entire scene: last write wins, no merge.
type WhiteboardPayload struct {
	CanvasState json.RawMessage `json:"canvas_state"`
}

// TaskUpdatePayload announces a confirmed task mutation.
type TaskUpdatePayload struct {
	Task *domain.Task `json:"task"`
}

// TaskDeletedPayload announces a confirmed task deletion.
type TaskDeletedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
}

// StatusPayload carries informational room notices (joins, leaves).
type StatusPayload struct {
	Message string `json:"message"`
}

// ErrorPayload carries a non-fatal error back to one client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// envelope wraps an Event for transit through the pub/sub backbone so every
// hub instance can honor sender exclusion: Origin is the connection the event
// came from, and when ExcludeOrigin is set that connection is skipped on
// delivery. Instances that do not host the origin deliver to all members.
type envelope struct {
	Origin        uuid.UUID `json:"origin,omitempty"`
	ExcludeOrigin bool      `json:"exclude_origin,omitempty"`
	Event         Event     `json:"event"`
}

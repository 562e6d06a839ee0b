// Package boardsdk is the Go client for the collabboard API: the REST
// surface, the realtime session channel, and the client-side state machines
// (whiteboard sync, chat log, board reconciler) built on top of them.
package boardsdk

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is a kanban column.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "to_do"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known kanban columns.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Board struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	WhiteboardData json.RawMessage `json:"whiteboard_data,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type BoardMember struct {
	ID       uuid.UUID `json:"id"`
	BoardID  uuid.UUID `json:"board_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	BoardID     uuid.UUID  `json:"board_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ChatMessage struct {
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// BoardDetail is the full board view returned by GET /boards/{id}.
type BoardDetail struct {
	Board   *Board        `json:"board"`
	Tasks   []Task        `json:"tasks"`
	Members []BoardMember `json:"members"`
}

type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
}

type InviteResponse struct {
	Member    *BoardMember `json:"member"`
	InviteURL string       `json:"invite_url"`
}

// EventType names a frame on the realtime stream. Mirrors the server's wire
// contract.
type EventType string

const (
	EventJoin             EventType = "join"
	EventLeave            EventType = "leave"
	EventChatMessage      EventType = "chat_message"
	EventWhiteboardUpdate EventType = "whiteboard_update"
	EventTaskUpdate       EventType = "task_update"
	EventTaskDeleted      EventType = "task_deleted"
	EventStatus           EventType = "status"
	EventError            EventType = "error"
)

// Event is the wire frame exchanged over a session channel.
type Event struct {
	Type    EventType       `json:"type"`
	BoardID uuid.UUID       `json:"board_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type whiteboardPayload struct {
	CanvasState json.RawMessage `json:"canvas_state"`
}

type taskUpdatePayload struct {
	Task Task `json:"task"`
}

type taskDeletedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
}

type statusPayload struct {
	Message string `json:"message"`
}

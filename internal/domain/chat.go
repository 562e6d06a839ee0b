package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is archived for durability when relayed. The realtime layer
// itself keeps no history: a client joining late receives nothing.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatMessageRepository interface {
	Create(ctx context.Context, m *ChatMessage) error
}

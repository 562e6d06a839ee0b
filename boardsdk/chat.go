package boardsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrEmptyMessage is returned for a blank chat message, before any network
// call is made.
var ErrEmptyMessage = errors.New("boardsdk: chat message must not be empty")

// chatSender relays chat messages to the room. *Channel satisfies it.
type chatSender interface {
	SendChat(ctx context.Context, boardID uuid.UUID, message string) error
}

// ChatLog is one board's chat view: an append-only log of messages in
// arrival order. The log starts empty on every join; there is no history
// and no replay. The sender's own messages appear via the room echo, not a
// local append, so every participant sees the same arrival order.
type ChatLog struct {
	sender  chatSender
	boardID uuid.UUID

	mu       sync.Mutex
	messages []ChatMessage
}

func NewChatLog(sender chatSender, boardID uuid.UUID) *ChatLog {
	return &ChatLog{sender: sender, boardID: boardID}
}

// Send relays one message to the room. A send that fails is logged and
// reported, never retried; the user resends if they care.
func (cl *ChatLog) Send(ctx context.Context, message string) error {
	if message == "" {
		return ErrEmptyMessage
	}

	if err := cl.sender.SendChat(ctx, cl.boardID, message); err != nil {
		log.Warn().Err(err).Str("board_id", cl.boardID.String()).Msg("boardsdk: chat send failed")
		return fmt.Errorf("boardsdk.ChatLog.Send: %w", err)
	}
	return nil
}

// HandleIncoming appends a message received from the room.
func (cl *ChatLog) HandleIncoming(msg ChatMessage) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.messages = append(cl.messages, msg)
}

// Messages returns the log in arrival order.
func (cl *ChatLog) Messages() []ChatMessage {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	out := make([]ChatMessage, len(cl.messages))
	copy(out, cl.messages)
	return out
}

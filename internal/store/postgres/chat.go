package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhq/collabboard/internal/domain"
)

type ChatMessageRepo struct {
	pool *pgxpool.Pool
}

func NewChatMessageRepo(pool *pgxpool.Pool) *ChatMessageRepo {
	return &ChatMessageRepo{pool: pool}
}

// Create archives a relayed chat message. The realtime layer never reads this
// table back; it exists for audit and offline inspection only.
func (r *ChatMessageRepo) Create(ctx context.Context, m *domain.ChatMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, board_id, user_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.BoardID, m.UserID, m.Message, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("chatMessageRepo.Create: %w", err)
	}

	return nil
}

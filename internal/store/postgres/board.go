package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhq/collabboard/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, name, owner_id, whiteboard_data, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Name, b.OwnerID, b.WhiteboardData, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, whiteboard_data, created_at
		 FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.OwnerID, &b.WhiteboardData, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BoardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.name, b.owner_id, b.whiteboard_data, b.created_at
		 FROM boards b
		 JOIN board_members m ON m.board_id = b.id
		 WHERE m.user_id = $1 AND m.status = $2
		 ORDER BY b.created_at
		 LIMIT 500`,
		userID, domain.MemberStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.OwnerID, &b.WhiteboardData, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("boardRepo.ListByUser: scan: %w", err)
		}
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardRepo.ListByUser: rows: %w", err)
	}

	return boards, nil
}

func (r *BoardRepo) SaveWhiteboard(ctx context.Context, id uuid.UUID, snapshot json.RawMessage) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE boards SET whiteboard_data = $1 WHERE id = $2`,
		snapshot, id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.SaveWhiteboard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.SaveWhiteboard: %w", domain.ErrNotFound)
	}

	return nil
}

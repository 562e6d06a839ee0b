package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhq/collabboard/internal/domain"
)

type BoardMemberRepo struct {
	pool *pgxpool.Pool
}

func NewBoardMemberRepo(pool *pgxpool.Pool) *BoardMemberRepo {
	return &BoardMemberRepo{pool: pool}
}

func (r *BoardMemberRepo) Create(ctx context.Context, m *domain.BoardMember) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_members (id, board_id, user_id, role, status, invite_token)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		m.ID, m.BoardID, m.UserID, m.Role, m.Status, m.InviteToken,
	)
	if err != nil {
		return fmt.Errorf("boardMemberRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardMemberRepo) IsActiveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM board_members
		   WHERE board_id = $1 AND user_id = $2 AND status = $3
		 )`,
		boardID, userID, domain.MemberStatusActive,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("boardMemberRepo.IsActiveMember: %w", err)
	}

	return exists, nil
}

func (r *BoardMemberRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.board_id, m.user_id, u.username, m.role, m.status
		 FROM board_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.board_id = $1
		 ORDER BY u.username
		 LIMIT 500`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardMemberRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var members []*domain.BoardMember
	for rows.Next() {
		var m domain.BoardMember
		if err := rows.Scan(&m.ID, &m.BoardID, &m.UserID, &m.Username, &m.Role, &m.Status); err != nil {
			return nil, fmt.Errorf("boardMemberRepo.ListByBoard: scan: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boardMemberRepo.ListByBoard: rows: %w", err)
	}

	return members, nil
}

func (r *BoardMemberRepo) GetByInviteToken(ctx context.Context, token string) (*domain.BoardMember, error) {
	var m domain.BoardMember

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, user_id, role, status, COALESCE(invite_token, '')
		 FROM board_members WHERE invite_token = $1`,
		token,
	).Scan(&m.ID, &m.BoardID, &m.UserID, &m.Role, &m.Status, &m.InviteToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardMemberRepo.GetByInviteToken: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardMemberRepo.GetByInviteToken: %w", err)
	}

	return &m, nil
}

func (r *BoardMemberRepo) Activate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE board_members SET status = $1, invite_token = NULL WHERE id = $2`,
		domain.MemberStatusActive, id,
	)
	if err != nil {
		return fmt.Errorf("boardMemberRepo.Activate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardMemberRepo.Activate: %w", domain.ErrNotFound)
	}

	return nil
}

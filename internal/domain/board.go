package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MemberRole is the role of a user on a board.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// MemberStatus tracks whether a membership is live or a pending invite.
type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "active"
	MemberStatusInvited MemberStatus = "invited"
)

type Board struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
	// WhiteboardData is the last persisted canvas snapshot. Opaque to the
	// server: it is stored and returned verbatim, never interpreted.
	WhiteboardData json.RawMessage `json:"whiteboard_data,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type BoardMember struct {
	ID          uuid.UUID    `json:"id"`
	BoardID     uuid.UUID    `json:"board_id"`
	UserID      uuid.UUID    `json:"user_id"`
	Username    string       `json:"username,omitempty"`
	Role        MemberRole   `json:"role"`
	Status      MemberStatus `json:"status"`
	InviteToken string       `json:"-"`
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Board, error)
	SaveWhiteboard(ctx context.Context, id uuid.UUID, snapshot json.RawMessage) error
}

type BoardMemberRepository interface {
	Create(ctx context.Context, m *BoardMember) error
	// IsActiveMember reports whether userID holds an active membership on boardID.
	IsActiveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*BoardMember, error)
	GetByInviteToken(ctx context.Context, token string) (*BoardMember, error)
	// Activate flips an invited membership to active and clears its token.
	Activate(ctx context.Context, id uuid.UUID) error
}

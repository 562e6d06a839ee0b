package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/collabhq/collabboard/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Boards() domain.BoardRepository
	Members() domain.BoardMemberRepository
	Tasks() domain.TaskRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (user *domain.User, accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// EventPublisher pushes confirmed task mutations into board rooms so every
// connected client converges without polling. *ws.Hub satisfies this
// interface.
type EventPublisher interface {
	PublishTaskUpdate(ctx context.Context, task *domain.Task) error
	PublishTaskDeleted(ctx context.Context, boardID, taskID uuid.UUID) error
}

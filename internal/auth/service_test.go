package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabhq/collabboard/internal/auth"
	"github.com/collabhq/collabboard/internal/domain"
)

// mockUserRepo is a configurable mock implementing domain.UserRepository.
type mockUserRepo struct {
	getByEmailUser *domain.User
	getByEmailErr  error

	getByIDUser *domain.User
	getByIDErr  error

	createErr   error
	createdUser *domain.User // captures the user passed to Create

	searchUsers []*domain.User
	searchErr   error
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) error {
	m.createdUser = u
	return m.createErr
}

func (m *mockUserRepo) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return m.getByIDUser, m.getByIDErr
}

func (m *mockUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return m.getByEmailUser, m.getByEmailErr
}

func (m *mockUserRepo) Search(context.Context, string) ([]*domain.User, error) {
	return m.searchUsers, m.searchErr
}

const testSecret = "unit-test-secret-0123456789abcdef"

func newService(repo *mockUserRepo) *auth.Service {
	return auth.NewService(repo, testSecret, 15*time.Minute, 24*time.Hour)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("happy path hashes password", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByEmailErr: domain.ErrNotFound}
		svc := newService(repo)

		user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "hunter22")
		require.NotNil(t, repo.createdUser)
		assert.Equal(t, user.ID, repo.createdUser.ID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByEmailUser: &domain.User{ID: uuid.New()}}
		svc := newService(repo)

		_, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	t.Run("happy path issues both tokens", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByEmailErr: domain.ErrNotFound}
		svc := newService(repo)

		registered, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
		require.NoError(t, err)

		repo.getByEmailUser = registered
		repo.getByEmailErr = nil

		user, access, refresh, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)

		claims, err := auth.ValidateToken(testSecret, access)
		require.NoError(t, err)
		assert.Equal(t, registered.ID.String(), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByEmailErr: domain.ErrNotFound}
		svc := newService(repo)

		registered, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
		require.NoError(t, err)

		repo.getByEmailUser = registered
		repo.getByEmailErr = nil

		_, _, _, err = svc.Login(context.Background(), "alice@example.com", "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByEmailErr: domain.ErrNotFound}
		svc := newService(repo)

		_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_RefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := &domain.User{ID: userID, Username: "alice", Email: "alice@example.com"}

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByIDUser: user}
		svc := newService(repo)

		refresh, err := auth.IssueRefreshToken(testSecret, userID, "alice", time.Hour)
		require.NoError(t, err)

		access, err := svc.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)

		claims, err := auth.ValidateToken(testSecret, access)
		require.NoError(t, err)
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, userID.String(), claims.UserID)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByIDUser: user}
		svc := newService(repo)

		access, err := auth.IssueAccessToken(testSecret, userID, "alice", time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), access)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("deleted user rejected", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserRepo{getByIDErr: domain.ErrNotFound}
		svc := newService(repo)

		refresh, err := auth.IssueRefreshToken(testSecret, userID, "alice", time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), refresh)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

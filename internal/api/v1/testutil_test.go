package v1_test

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/collabhq/collabboard/internal/domain"
	"github.com/collabhq/collabboard/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user identity into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID, username string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUsername, username)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users   domain.UserRepository
	boards  domain.BoardRepository
	members domain.BoardMemberRepository
	tasks   domain.TaskRepository
}

func (m *mockDataStore) Users() domain.UserRepository          { return m.users }
func (m *mockDataStore) Boards() domain.BoardRepository        { return m.boards }
func (m *mockDataStore) Members() domain.BoardMemberRepository { return m.members }
func (m *mockDataStore) Tasks() domain.TaskRepository          { return m.tasks }

// activeMembers returns a member repo that admits exactly the given users.
func activeMembers(userIDs ...uuid.UUID) *mockMemberRepo {
	return &mockMemberRepo{
		isActiveMemberFunc: func(_ context.Context, _, userID uuid.UUID) (bool, error) {
			for _, id := range userIDs {
				if id == userID {
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	searchFunc     func(ctx context.Context, query string) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Search(ctx context.Context, query string) ([]*domain.User, error) {
	return m.searchFunc(ctx, query)
}

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc         func(ctx context.Context, b *domain.Board) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	listByUserFunc     func(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
	saveWhiteboardFunc func(ctx context.Context, id uuid.UUID, snapshot json.RawMessage) error
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockBoardRepo) SaveWhiteboard(ctx context.Context, id uuid.UUID, snapshot json.RawMessage) error {
	return m.saveWhiteboardFunc(ctx, id, snapshot)
}

// ---------------------------------------------------------------------------
// Mock BoardMemberRepository
// ---------------------------------------------------------------------------

type mockMemberRepo struct {
	createFunc           func(ctx context.Context, m *domain.BoardMember) error
	isActiveMemberFunc   func(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	listByBoardFunc      func(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardMember, error)
	getByInviteTokenFunc func(ctx context.Context, token string) (*domain.BoardMember, error)
	activateFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockMemberRepo) Create(ctx context.Context, member *domain.BoardMember) error {
	return m.createFunc(ctx, member)
}

func (m *mockMemberRepo) IsActiveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	return m.isActiveMemberFunc(ctx, boardID, userID)
}

func (m *mockMemberRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardMember, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockMemberRepo) GetByInviteToken(ctx context.Context, token string) (*domain.BoardMember, error) {
	return m.getByInviteTokenFunc(ctx, token)
}

func (m *mockMemberRepo) Activate(ctx context.Context, id uuid.UUID) error {
	return m.activateFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	createFunc      func(ctx context.Context, t *domain.Task) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error)
	updateFunc      func(ctx context.Context, t *domain.Task) error
	deleteFunc      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return m.createFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Task, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (*domain.User, string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return m.registerFunc(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (user *domain.User, accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher
// ---------------------------------------------------------------------------

type mockEventPublisher struct {
	taskUpdates  []*domain.Task
	taskDeletes  []uuid.UUID
	deleteBoards []uuid.UUID
}

func (m *mockEventPublisher) PublishTaskUpdate(_ context.Context, task *domain.Task) error {
	m.taskUpdates = append(m.taskUpdates, task)
	return nil
}

func (m *mockEventPublisher) PublishTaskDeleted(_ context.Context, boardID, taskID uuid.UUID) error {
	m.deleteBoards = append(m.deleteBoards, boardID)
	m.taskDeletes = append(m.taskDeletes, taskID)
	return nil
}

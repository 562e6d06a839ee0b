package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabhq/collabboard/internal/domain"
)

type Store struct {
	pool    *pgxpool.Pool
	users   *UserRepo
	boards  *BoardRepo
	members *BoardMemberRepo
	tasks   *TaskRepo
	chat    *ChatMessageRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:    pool,
		users:   NewUserRepo(pool),
		boards:  NewBoardRepo(pool),
		members: NewBoardMemberRepo(pool),
		tasks:   NewTaskRepo(pool),
		chat:    NewChatMessageRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() domain.UserRepository          { return s.users }
func (s *Store) Boards() domain.BoardRepository        { return s.boards }
func (s *Store) Members() domain.BoardMemberRepository { return s.members }
func (s *Store) Tasks() domain.TaskRepository          { return s.tasks }
func (s *Store) Chat() domain.ChatMessageRepository    { return s.chat }

package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/collabhq/collabboard/internal/domain"
	"github.com/collabhq/collabboard/internal/server/middleware"
)

type ListBoardsOutput struct {
	Body []*domain.Board
}

type CreateBoardInput struct {
	Body struct {
		Name      string      `json:"name" minLength:"1" maxLength:"255" doc:"Board name"`
		MemberIDs []uuid.UUID `json:"member_ids,omitempty" doc:"Users to add as members"`
	}
}

type CreateBoardOutput struct {
	Body *domain.Board
}

type GetBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

// BoardDetail is the full board view a client loads on open: the board row
// with its persisted whiteboard snapshot, every task, and the member list.
type BoardDetail struct {
	Board   *domain.Board         `json:"board"`
	Tasks   []*domain.Task        `json:"tasks"`
	Members []*domain.BoardMember `json:"members"`
}

type GetBoardOutput struct {
	Body *BoardDetail
}

type SaveWhiteboardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		WhiteboardState json.RawMessage `json:"whiteboard_state" doc:"Full canvas snapshot"`
	}
}

// requireIdentity pulls the authenticated user out of the request context.
func requireIdentity(ctx context.Context) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error403Forbidden("missing user context")
	}
	return userID, nil
}

// requireMember rejects callers without an active membership on the board.
func requireMember(ctx context.Context, store DataStore, boardID, userID uuid.UUID) error {
	isMember, err := store.Members().IsActiveMember(ctx, boardID, userID)
	if err != nil {
		return huma.Error500InternalServerError("failed to check board membership", err)
	}
	if !isMember {
		return huma.Error403Forbidden("not a member of this board")
	}
	return nil
}

func RegisterBoardRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards the caller belongs to",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		boards, err := store.Boards().ListByUser(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list boards", err)
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-board",
		Method:      http.MethodPost,
		Path:        "/boards",
		Summary:     "Create a board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *CreateBoardInput) (*CreateBoardOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		b := &domain.Board{
			ID:        uuid.New(),
			Name:      input.Body.Name,
			OwnerID:   userID,
			CreatedAt: time.Now(),
		}
		if err := store.Boards().Create(ctx, b); err != nil {
			return nil, huma.Error500InternalServerError("failed to create board", err)
		}

		owner := &domain.BoardMember{
			ID:      uuid.New(),
			BoardID: b.ID,
			UserID:  userID,
			Role:    domain.MemberRoleOwner,
			Status:  domain.MemberStatusActive,
		}
		if err := store.Members().Create(ctx, owner); err != nil {
			return nil, huma.Error500InternalServerError("failed to add board owner", err)
		}

		for _, memberID := range input.Body.MemberIDs {
			if memberID == userID {
				continue
			}
			if _, err := store.Users().GetByID(ctx, memberID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, huma.Error404NotFound("member user not found: " + memberID.String())
				}
				return nil, huma.Error500InternalServerError("failed to validate member", err)
			}

			m := &domain.BoardMember{
				ID:      uuid.New(),
				BoardID: b.ID,
				UserID:  memberID,
				Role:    domain.MemberRoleMember,
				Status:  domain.MemberStatusActive,
			}
			if err := store.Members().Create(ctx, m); err != nil {
				return nil, huma.Error500InternalServerError("failed to add board member", err)
			}
		}

		return &CreateBoardOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a board with its tasks and members",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireMember(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		b, err := store.Boards().GetByID(ctx, input.BoardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to get board", err)
		}

		tasks, err := store.Tasks().ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list board tasks", err)
		}

		members, err := store.Members().ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list board members", err)
		}

		return &GetBoardOutput{Body: &BoardDetail{Board: b, Tasks: tasks, Members: members}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-whiteboard",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}/whiteboard",
		Summary:     "Persist the board's whiteboard snapshot",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *SaveWhiteboardInput) (*struct{}, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireMember(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		if err := store.Boards().SaveWhiteboard(ctx, input.BoardID, input.Body.WhiteboardState); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to save whiteboard", err)
		}

		return nil, nil
	})
}

package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/collabhq/collabboard/internal/auth"
	"github.com/collabhq/collabboard/internal/config"
	"github.com/collabhq/collabboard/internal/domain"
)

type ListMembersInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListMembersOutput struct {
	Body []*domain.BoardMember
}

type InviteMemberInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Email string `json:"email" minLength:"3" maxLength:"255" doc:"Email of the user to invite"`
	}
}

type InviteMemberOutput struct {
	Body struct {
		Member    *domain.BoardMember `json:"member"`
		InviteURL string              `json:"invite_url"`
	}
}

type AcceptInviteInput struct {
	Token string `path:"token" doc:"Signed invite token"`
}

type AcceptInviteOutput struct {
	Body struct {
		BoardID uuid.UUID `json:"board_id"`
	}
}

func RegisterMemberRoutes(api huma.API, store DataStore, jwtSecret string, invite config.InviteConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/members",
		Summary:     "List a board's members",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireMember(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		members, err := store.Members().ListByBoard(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list board members", err)
		}

		return &ListMembersOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "invite-member",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/invite",
		Summary:     "Invite a user to a board by email",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *InviteMemberInput) (*InviteMemberOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		board, err := store.Boards().GetByID(ctx, input.BoardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("board not found")
			}
			return nil, huma.Error500InternalServerError("failed to get board", err)
		}
		if board.OwnerID != userID {
			return nil, huma.Error403Forbidden("only the board owner can invite members")
		}

		invitee, err := store.Users().GetByEmail(ctx, input.Body.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no account for that email")
			}
			return nil, huma.Error500InternalServerError("failed to look up user", err)
		}

		token, err := auth.IssueInviteToken(jwtSecret, input.BoardID, invitee.ID, invite.TokenTTL)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to issue invite token", err)
		}

		m := &domain.BoardMember{
			ID:          uuid.New(),
			BoardID:     input.BoardID,
			UserID:      invitee.ID,
			Role:        domain.MemberRoleMember,
			Status:      domain.MemberStatusInvited,
			InviteToken: token,
		}
		if err := store.Members().Create(ctx, m); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("user is already a member or invited")
			}
			return nil, huma.Error500InternalServerError("failed to create invitation", err)
		}

		// Mail delivery is an external concern; the accept link goes back
		// to the caller and into the log for operators without a mailer.
		inviteURL := invite.BaseURL + "?token=" + token
		log.Info().
			Str("board_id", input.BoardID.String()).
			Str("invitee", invitee.Email).
			Str("invite_url", inviteURL).
			Msg("board invitation created")

		out := &InviteMemberOutput{}
		out.Body.Member = m
		out.Body.InviteURL = inviteURL
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-invite",
		Method:      http.MethodGet,
		Path:        "/invites/{token}",
		Summary:     "Accept a board invitation",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *AcceptInviteInput) (*AcceptInviteOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		boardID, inviteeID, err := auth.ValidateInviteToken(jwtSecret, input.Token)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired invite token")
		}
		if inviteeID != userID {
			return nil, huma.Error403Forbidden("invitation was issued to a different user")
		}

		m, err := store.Members().GetByInviteToken(ctx, input.Token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("invitation not found or already accepted")
			}
			return nil, huma.Error500InternalServerError("failed to look up invitation", err)
		}

		if err := store.Members().Activate(ctx, m.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to activate membership", err)
		}

		out := &AcceptInviteOutput{}
		out.Body.BoardID = boardID
		return out, nil
	})
}

package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/collabhq/collabboard/internal/domain"
)

type SearchUsersInput struct {
	Query string `query:"q" minLength:"1" maxLength:"255" doc:"Username or email fragment"`
}

type SearchUsersOutput struct {
	Body []*domain.User
}

func RegisterUserRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "search-users",
		Method:      http.MethodGet,
		Path:        "/users/search",
		Summary:     "Search users to add to a board",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *SearchUsersInput) (*SearchUsersOutput, error) {
		if _, err := requireIdentity(ctx); err != nil {
			return nil, err
		}

		users, err := store.Users().Search(ctx, input.Query)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to search users", err)
		}

		return &SearchUsersOutput{Body: users}, nil
	})
}

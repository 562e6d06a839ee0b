package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/collabhq/collabboard/internal/api/v1"
	"github.com/collabhq/collabboard/internal/api/ws"
	"github.com/collabhq/collabboard/internal/config"
	"github.com/collabhq/collabboard/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, hub *ws.Hub, cfg *config.Config) {
	v1.RegisterBoardRoutes(api, store)
	v1.RegisterTaskRoutes(api, store, hub)
	v1.RegisterMemberRoutes(api, store, cfg.JWT.Secret, cfg.Invite)
	v1.RegisterUserRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/", hub.Serve)
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, d *dispatch.Dispatcher, gw *ws.Gateway) http.Handler {
	r := chi.NewRouter()

	r.Post("/communities/{communityID}/lobby", SetLobby(h))
	r.Get("/communities/{communityID}/lobby", GetLobby(h))
	r.Post("/communities/{communityID}/sessions", CreateSession(d))
	r.Get("/healthz", Healthz)
	r.Get("/ws", gw.Handler())
	return r
}

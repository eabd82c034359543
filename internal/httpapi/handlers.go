package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/game"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/session"
)

type lobbyBody struct {
	ChannelRef  string `json:"channel_ref"`
	CategoryRef string `json:"category_ref"`
	PromptRef   string `json:"prompt_ref"`
}

type lobbyResponse struct {
	CommunityID   string `json:"community_id"`
	ChannelRef    string `json:"channel_ref"`
	CategoryRef   string `json:"category_ref"`
	PromptRef     string `json:"prompt_ref"`
	PromptEnabled bool   `json:"prompt_enabled"`
	Replaced      bool   `json:"replaced,omitempty"`
}

func SetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityID")

		var body lobbyBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		reply := make(chan hub.LobbyReply, 1)
		h.Inbox() <- hub.SetLobby{Config: hub.LobbyConfig{
			CommunityID: communityID,
			ChannelRef:  body.ChannelRef,
			CategoryRef: body.CategoryRef,
			PromptRef:   body.PromptRef,
		}, Reply: reply}
		res := <-reply

		writeJSON(w, http.StatusOK, lobbyResponse{
			CommunityID:   communityID,
			ChannelRef:    body.ChannelRef,
			CategoryRef:   body.CategoryRef,
			PromptRef:     body.PromptRef,
			PromptEnabled: res.PromptEnabled,
			Replaced:      res.OK,
		})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityID")

		reply := make(chan hub.LobbyReply, 1)
		h.Inbox() <- hub.GetLobby{CommunityID: communityID, Reply: reply}
		res := <-reply
		if !res.OK {
			http.Error(w, "lobby not configured", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, lobbyResponse{
			CommunityID:   res.Config.CommunityID,
			ChannelRef:    res.Config.ChannelRef,
			CategoryRef:   res.Config.CategoryRef,
			PromptRef:     res.Config.PromptRef,
			PromptEnabled: res.PromptEnabled,
		})
	}
}

type createSessionBody struct {
	ActorID string `json:"actor_id"`
	Title   string `json:"title,omitempty"`
}

// CreateSession is the HTTP spelling of the new-session action; it runs
// through the same dispatcher as the websocket path.
func CreateSession(d *dispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityID")

		var body createSessionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		res := d.Invoke(r.Context(), dispatch.Request{
			Action:  dispatch.ActionNewSession,
			Surface: communityID,
			ActorID: body.ActorID,
			Payload: map[string]string{"title": body.Title},
		})
		if res.Err != nil {
			http.Error(w, res.Err.Error(), statusFor(res.Err))
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Message string `json:"message"`
		}{Message: res.Msg})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, hub.ErrAlreadyInSession):
		return http.StatusConflict
	case errors.Is(err, session.ErrGone), errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, dispatch.ErrUnknownOrigin):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

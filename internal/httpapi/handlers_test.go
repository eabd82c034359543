package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campfire-games/lobby-backend/internal/directory"
	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/handlers"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/provision"
	"github.com/campfire-games/lobby-backend/internal/ws"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	h := hub.NewHub(context.Background(), hub.Options{})
	d := dispatch.New()
	dir := directory.New()
	gw := ws.NewGateway(h, d, dir, nil)

	handlers.RegisterAll(handlers.Deps{
		Base:           context.Background(),
		Hub:            h,
		Dispatch:       d,
		Provision:      provision.UUID{},
		Directory:      dir,
		BallotDuration: time.Minute,
	})

	srv := httptest.NewServer(SetupRoutes(h, d, gw))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestLobby_SetThenGet(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/communities/guild1/lobby", "application/json",
		strings.NewReader(`{"channel_ref":"chan-a","prompt_ref":"msg-1"}`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/communities/guild1/lobby")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/communities/other/lobby")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCreateSession_ConflictForBusyHost(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/communities/guild1/sessions", "application/json",
		strings.NewReader(`{"actor_id":"u01","title":"Echo Tango"}`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, err = http.Post(srv.URL+"/communities/guild1/sessions", "application/json",
		strings.NewReader(`{"actor_id":"u01"}`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCreateSession_BadBody(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/communities/guild1/sessions", "application/json",
		strings.NewReader(`{`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

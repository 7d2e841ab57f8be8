package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpapi "caro/internal/api/http"
	"caro/internal/api/ws"
	"caro/internal/config"
	"caro/internal/room"
	"caro/internal/session"
	"caro/internal/session/sessiontest"
	"caro/internal/shared"
	"caro/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *room.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	timing := config.DefaultTiming()
	timing.RoundDelay = 50 * time.Millisecond
	reg := session.NewRegistry(64, zerolog.Nop())
	rm := room.NewManager(store.NewMemoryStore(), reg, timing, config.DefaultWeights(), zerolog.Nop())
	t.Cleanup(rm.Close)
	hub := ws.NewHub(rm, zerolog.Nop())
	return httpapi.NewRouter(rm, hub, zerolog.Nop()), rm
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type roomResponse struct {
	Room struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Host     string          `json:"host"`
		Guest    string          `json:"guest"`
		Started  bool            `json:"started"`
		Settings shared.Settings `json:"settings"`
	} `json:"room"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r, _ := setup(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoomLifecycle(t *testing.T) {
	r, rm := setup(t)
	require.NoError(t, rm.Login("alice", sessiontest.NewRecorder()))
	require.NoError(t, rm.Login("bob", sessiontest.NewRecorder()))

	w := do(t, r, http.MethodPost, "/api/rooms", httpapi.CreateRoomRequest{
		Username: "alice",
		Settings: &shared.Settings{BoardSize: 5, TotalRounds: 1, TimePerTurn: 30},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[roomResponse](t, w)
	id := created.Room.ID
	assert.Equal(t, "alice's room", created.Room.Name)
	assert.Equal(t, 5, created.Room.Settings.BoardSize)

	w = do(t, r, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Rooms []json.RawMessage `json:"rooms"`
	}](t, w)
	assert.Len(t, list.Rooms, 1)

	w = do(t, r, http.MethodPost, "/api/rooms/"+id+"/join", httpapi.UserRequest{Username: "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bob", decode[roomResponse](t, w).Room.Guest)

	w = do(t, r, http.MethodPost, "/api/rooms/"+id+"/start", httpapi.UserRequest{Username: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	zero := 0
	w = do(t, r, http.MethodPost, "/api/rooms/"+id+"/move", httpapi.MoveRequest{Username: "alice", Row: &zero, Col: &zero})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/rooms/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[struct {
		State shared.GameState `json:"state"`
	}](t, w)
	assert.Equal(t, "bob", state.State.Turn)
	assert.Equal(t, 1, int(state.State.Board.Cells[0][0]))

	w = do(t, r, http.MethodPost, "/api/rooms/"+id+"/chat", httpapi.ChatRequest{Username: "bob", Text: "gg"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/rooms/"+id+"/leave", httpapi.UserRequest{Username: "alice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	r, rm := setup(t)
	require.NoError(t, rm.Login("alice", sessiontest.NewRecorder()))
	require.NoError(t, rm.Login("bob", sessiontest.NewRecorder()))
	info, err := rm.CreateRoom("alice", shared.DefaultSettings())
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing room", http.MethodPost, "/api/rooms/nope/join", httpapi.UserRequest{Username: "bob"}, http.StatusNotFound},
		{"already hosting", http.MethodPost, "/api/rooms", httpapi.CreateRoomRequest{Username: "alice"}, http.StatusConflict},
		{"not logged in", http.MethodPost, "/api/rooms", httpapi.CreateRoomRequest{Username: "ghost"}, http.StatusForbidden},
		{"non-host start", http.MethodPost, "/api/rooms/" + info.ID + "/start", httpapi.UserRequest{Username: "bob"}, http.StatusForbidden},
		{"start without guest", http.MethodPost, "/api/rooms/" + info.ID + "/start", httpapi.UserRequest{Username: "alice"}, http.StatusConflict},
		{"kick nobody", http.MethodPost, "/api/rooms/" + info.ID + "/kick", httpapi.KickRequest{Username: "alice", Target: "bob"}, http.StatusConflict},
		{"bad settings", http.MethodPut, "/api/rooms/" + info.ID + "/settings", httpapi.SettingsRequest{Username: "alice", Settings: shared.Settings{TotalRounds: 1000}}, http.StatusBadRequest},
		{"missing username", http.MethodPost, "/api/rooms/" + info.ID + "/join", map[string]string{}, http.StatusBadRequest},
		{"missing move coords", http.MethodPost, "/api/rooms/" + info.ID + "/move", map[string]string{"username": "alice"}, http.StatusBadRequest},
		{"blank chat", http.MethodPost, "/api/rooms/" + info.ID + "/chat", httpapi.ChatRequest{Username: "alice", Text: "  "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestBotAndKick(t *testing.T) {
	r, rm := setup(t)
	require.NoError(t, rm.Login("alice", sessiontest.NewRecorder()))
	info, err := rm.CreateRoom("alice", shared.DefaultSettings())
	require.NoError(t, err)

	w := do(t, r, http.MethodPost, "/api/rooms/"+info.ID+"/bot", httpapi.UserRequest{Username: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, shared.BotName, decode[roomResponse](t, w).Room.Guest)

	w = do(t, r, http.MethodPost, "/api/rooms/"+info.ID+"/kick", httpapi.KickRequest{Username: "alice", Target: shared.BotName})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[roomResponse](t, w).Room.Guest)
}

func TestUsersHeartbeatLogout(t *testing.T) {
	r, rm := setup(t)
	require.NoError(t, rm.Login("alice", sessiontest.NewRecorder()))

	w := do(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":["alice"]}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/heartbeat", httpapi.UserRequest{Username: "alice"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodPost, "/api/logout", httpapi.UserRequest{Username: "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rm.OnlineUsers())
}

func TestWebsocketRejectsInvalidUsername(t *testing.T) {
	r, _ := setup(t)
	w := do(t, r, http.MethodGet, "/ws?username=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigEndpoints(t *testing.T) {
	r, _ := setup(t)

	w := do(t, r, http.MethodGet, "/api/config/timing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	timing := decode[struct {
		Timing struct {
			HeartbeatIntervalMs int64 `json:"heartbeatIntervalMs"`
			RoundDelayMs        int64 `json:"roundDelayMs"`
		} `json:"timing"`
	}](t, w)
	assert.Equal(t, config.DefaultTiming().HeartbeatInterval.Milliseconds(), timing.Timing.HeartbeatIntervalMs)
	assert.Equal(t, int64(50), timing.Timing.RoundDelayMs)

	w = do(t, r, http.MethodGet, "/api/config/weights", nil)
	require.Equal(t, http.StatusOK, w.Code)
	weights := decode[struct {
		Weights struct {
			Defend [6]int64 `json:"defend"`
		} `json:"weights"`
	}](t, w)
	assert.Equal(t, config.DefaultWeights().Defend, weights.Weights.Defend)
}

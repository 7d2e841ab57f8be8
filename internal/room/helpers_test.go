package room_test

import (
	"testing"
	"time"

	"caro/internal/config"
	"caro/internal/room"
	"caro/internal/session"
	"caro/internal/session/sessiontest"
	"caro/internal/shared"
	"caro/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fastTiming keeps scheduled transitions in the millisecond range. A turn
// unit of 10ms makes TimePerTurn=10 a 100ms turn.
func fastTiming() config.Timing {
	return config.Timing{
		HeartbeatInterval:  10 * time.Millisecond,
		HeartbeatTimeout:   50 * time.Millisecond,
		SweepInterval:      10 * time.Millisecond,
		DefaultTurnTimeout: time.Minute,
		BotThinkDelay:      20 * time.Millisecond,
		RoundDelay:         60 * time.Millisecond,
		TurnUnit:           10 * time.Millisecond,
	}
}

type harness struct {
	t        *testing.T
	manager  *room.Manager
	sessions *session.Registry
	store    *store.MemoryStore
	clients  map[string]*sessiontest.Recorder
}

func newHarness(t *testing.T, timing config.Timing) *harness {
	t.Helper()
	sessions := session.NewRegistry(256, zerolog.Nop())
	st := store.NewMemoryStore()
	m := room.NewManager(st, sessions, timing, config.DefaultWeights(), zerolog.Nop())
	t.Cleanup(m.Close)
	return &harness{
		t:        t,
		manager:  m,
		sessions: sessions,
		store:    st,
		clients:  map[string]*sessiontest.Recorder{},
	}
}

func (h *harness) login(names ...string) {
	h.t.Helper()
	for _, name := range names {
		rec := sessiontest.NewRecorder()
		require.NoError(h.t, h.manager.Login(name, rec))
		h.clients[name] = rec
	}
}

func (h *harness) client(name string) *sessiontest.Recorder {
	h.t.Helper()
	rec, ok := h.clients[name]
	require.True(h.t, ok, "no client %q", name)
	return rec
}

// match logs in host and guest, seats them and returns the room id.
func (h *harness) match(host, guest string, s shared.Settings) string {
	h.t.Helper()
	h.login(host, guest)
	info, err := h.manager.CreateRoom(host, s)
	require.NoError(h.t, err)
	_, err = h.manager.JoinRoom(guest, info.ID)
	require.NoError(h.t, err)
	return info.ID
}

func (h *harness) info(roomID string) shared.RoomInfo {
	h.t.Helper()
	info, err := h.manager.Room(roomID)
	require.NoError(h.t, err)
	return info
}

func (h *harness) state(roomID string) shared.GameState {
	h.t.Helper()
	st, err := h.manager.State(roomID)
	require.NoError(h.t, err)
	return st
}

func (h *harness) move(user, roomID string, row, col int) {
	h.t.Helper()
	require.NoError(h.t, h.manager.PlaceMove(user, roomID, row, col))
}

func stones(b shared.GameState) int {
	n := 0
	for _, row := range b.Board.Cells {
		for _, c := range row {
			if c != 0 {
				n++
			}
		}
	}
	return n
}

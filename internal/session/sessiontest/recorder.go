// Package sessiontest provides an in-memory session.Endpoint for tests.
package sessiontest

import (
	"errors"
	"sync"

	"caro/internal/shared"
)

var ErrClosed = errors.New("recorder closed")

// Recorder stores every push it receives. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	failing  bool
	block    chan struct{}
	lobbies  [][]shared.RoomInfo
	users    [][]string
	rooms    []shared.RoomInfo
	states   []shared.GameState
	chats    []shared.ChatMessage
	ended    []string
	kicked   []string
	pings    int
	received int
}

func NewRecorder() *Recorder { return &Recorder{} }

// Fail makes every later push return ErrClosed.
func (r *Recorder) Fail() {
	r.mu.Lock()
	r.failing = true
	r.mu.Unlock()
}

// Block makes every later push wait until the returned func is called.
func (r *Recorder) Block() (release func()) {
	ch := make(chan struct{})
	r.mu.Lock()
	r.block = ch
	r.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (r *Recorder) record(fn func()) error {
	r.mu.Lock()
	block := r.block
	r.mu.Unlock()
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.received++
	if r.failing {
		return ErrClosed
	}
	fn()
	return nil
}

func (r *Recorder) OnLobbyUpdate(rooms []shared.RoomInfo) error {
	return r.record(func() { r.lobbies = append(r.lobbies, rooms) })
}

func (r *Recorder) OnUserListUpdate(usernames []string) error {
	return r.record(func() { r.users = append(r.users, usernames) })
}

func (r *Recorder) OnRoomInfoUpdate(room shared.RoomInfo) error {
	return r.record(func() { r.rooms = append(r.rooms, room) })
}

func (r *Recorder) OnGameStateUpdate(state shared.GameState) error {
	return r.record(func() { r.states = append(r.states, state) })
}

func (r *Recorder) OnChatMessageReceived(msg shared.ChatMessage) error {
	return r.record(func() { r.chats = append(r.chats, msg) })
}

func (r *Recorder) OnGameEnded(summary string) error {
	return r.record(func() { r.ended = append(r.ended, summary) })
}

func (r *Recorder) OnKicked(reason string) error {
	return r.record(func() { r.kicked = append(r.kicked, reason) })
}

func (r *Recorder) Ping() error {
	return r.record(func() { r.pings++ })
}

// Received counts every push attempt, failed ones included.
func (r *Recorder) Received() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

func (r *Recorder) Lobbies() [][]shared.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]shared.RoomInfo(nil), r.lobbies...)
}

func (r *Recorder) LastLobby() ([]shared.RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lobbies) == 0 {
		return nil, false
	}
	return r.lobbies[len(r.lobbies)-1], true
}

func (r *Recorder) LastUserList() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.users) == 0 {
		return nil, false
	}
	return r.users[len(r.users)-1], true
}

func (r *Recorder) RoomInfos() []shared.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.RoomInfo(nil), r.rooms...)
}

func (r *Recorder) LastRoomInfo() (shared.RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rooms) == 0 {
		return shared.RoomInfo{}, false
	}
	return r.rooms[len(r.rooms)-1], true
}

func (r *Recorder) States() []shared.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.GameState(nil), r.states...)
}

func (r *Recorder) LastState() (shared.GameState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return shared.GameState{}, false
	}
	return r.states[len(r.states)-1], true
}

func (r *Recorder) Chats() []shared.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.ChatMessage(nil), r.chats...)
}

func (r *Recorder) Ended() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ended...)
}

func (r *Recorder) Kicked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kicked...)
}

func (r *Recorder) Pings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pings
}

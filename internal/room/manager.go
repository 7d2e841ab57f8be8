package room

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"caro/internal/config"
	"caro/internal/game"
	"caro/internal/session"
	"caro/internal/shared"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Add(r *Room)
	Remove(id string)
	Get(id string) (*Room, bool)
	List() []*Room
	FindByParticipant(username string) (*Room, bool)
}

const (
	MaxTotalRounds   = 99
	MaxTimePerTurn   = 3600
	MaxMessageLength = 500
	opponentLeftNote = "The opponent disconnected."
	hostLeftReason   = "The host left. The room has been closed."
	hostGoneReason   = "The host disconnected. The room has been closed."
	kickedReason     = "You were kicked by the host."
	systemChatSender = "SYSTEM"
)

// Manager is the game orchestrator: it serves every client request and
// owns the per-room timers.
type Manager struct {
	store    Store
	sessions Sessions
	timing   config.Timing
	weights  config.Weights
	log      zerolog.Logger
	now      func() time.Time

	// membership serialises seating in CreateRoom and JoinRoom with the
	// departure of a logged out or evicted user. The session is always
	// removed before HandleDisconnect takes it, so either the seating sees
	// no session or the departure finds the seat.
	membership sync.Mutex
}

func NewManager(s Store, sessions Sessions, timing config.Timing, weights config.Weights, log zerolog.Logger) *Manager {
	return &Manager{
		store:    s,
		sessions: sessions,
		timing:   timing,
		weights:  weights,
		log:      log.With().Str("component", "rooms").Logger(),
		now:      time.Now,
	}
}

func (m *Manager) Timing() config.Timing { return m.timing }

func (m *Manager) Weights() config.Weights { return m.weights }

func (m *Manager) Login(username string, ep session.Endpoint) error {
	if err := m.sessions.Register(username, ep); err != nil {
		return err
	}
	m.log.Info().Str("username", username).Msg("login")
	m.pushLobby(username)
	m.broadcastLobby()
	m.broadcastUsers()
	return nil
}

// Logout ends the session and leaves the user's room, if any. Unknown
// users are ignored.
func (m *Manager) Logout(username string) {
	m.membership.Lock()
	if !m.sessions.Remove(username) {
		m.membership.Unlock()
		return
	}
	m.depart(username, hostLeftReason, false)
	m.membership.Unlock()

	m.log.Info().Str("username", username).Msg("logout")
	m.broadcastLobby()
	m.broadcastUsers()
}

// HandleDisconnect cleans up after a user whose session is already gone.
// It never fails.
func (m *Manager) HandleDisconnect(username string) {
	m.log.Info().Str("username", username).Msg("disconnect")
	m.membership.Lock()
	m.depart(username, hostGoneReason, true)
	m.membership.Unlock()
	m.broadcastLobby()
	m.broadcastUsers()
}

func (m *Manager) SendHeartbeat(username string) {
	m.sessions.Touch(username)
}

func (m *Manager) OnlineUsers() []string {
	return m.sessions.Usernames()
}

func (m *Manager) AllRooms() []shared.RoomInfo {
	rooms := m.store.List()
	out := make([]shared.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if info, ok := r.Info(); ok {
			out = append(out, info)
		}
	}
	return out
}

func (m *Manager) Room(roomID string) (shared.RoomInfo, error) {
	r, err := m.get(roomID)
	if err != nil {
		return shared.RoomInfo{}, err
	}
	info, ok := r.Info()
	if !ok {
		return shared.RoomInfo{}, ErrRoomNotFound
	}
	return info, nil
}

func (m *Manager) State(roomID string) (shared.GameState, error) {
	r, err := m.get(roomID)
	if err != nil {
		return shared.GameState{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return shared.GameState{}, ErrRoomNotFound
	}
	return r.stateLocked(), nil
}

func validateSettings(s shared.Settings) (shared.Settings, error) {
	if s.TotalRounds > MaxTotalRounds {
		return s, fmt.Errorf("%w: at most %d rounds", ErrInvalidSettings, MaxTotalRounds)
	}
	if s.TimePerTurn > MaxTimePerTurn {
		return s, fmt.Errorf("%w: at most %d seconds per turn", ErrInvalidSettings, MaxTimePerTurn)
	}
	return s.Normalize(), nil
}

func (m *Manager) CreateRoom(username string, s shared.Settings) (shared.RoomInfo, error) {
	s, err := validateSettings(s)
	if err != nil {
		return shared.RoomInfo{}, err
	}

	m.membership.Lock()
	if !m.sessions.Contains(username) {
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrNotLoggedIn
	}
	if _, ok := m.store.FindByParticipant(username); ok {
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrAlreadyInRoom
	}
	r := New(uuid.NewString(), username, s, m.now())
	m.store.Add(r)
	m.membership.Unlock()

	r.mu.Lock()
	info := r.infoLocked()
	m.pushRoomInfo(info, username)
	r.mu.Unlock()

	m.log.Info().Str("room_id", info.ID).Str("username", username).Msg("room created")
	m.broadcastLobby()
	return info, nil
}

func (m *Manager) JoinRoom(username, roomID string) (shared.RoomInfo, error) {
	m.membership.Lock()
	if !m.sessions.Contains(username) {
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrNotLoggedIn
	}
	if _, ok := m.store.FindByParticipant(username); ok {
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrAlreadyInRoom
	}
	r, err := m.get(roomID)
	if err != nil {
		m.membership.Unlock()
		return shared.RoomInfo{}, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrRoomNotFound
	}
	if !r.guest.IsZero() {
		r.mu.Unlock()
		m.membership.Unlock()
		return shared.RoomInfo{}, ErrRoomFull
	}
	r.guest = shared.Human(username)
	r.botMode = false
	info := r.infoLocked()
	m.pushRoomInfo(info, r.humans()...)
	r.mu.Unlock()
	m.membership.Unlock()

	m.log.Info().Str("room_id", roomID).Str("username", username).Msg("guest joined")
	m.broadcastLobby()
	return info, nil
}

func (m *Manager) UpdateRoomSettings(username, roomID string, s shared.Settings) (shared.RoomInfo, error) {
	s, err := validateSettings(s)
	if err != nil {
		return shared.RoomInfo{}, err
	}
	r, err := m.get(roomID)
	if err != nil {
		return shared.RoomInfo{}, err
	}

	r.mu.Lock()
	if err := r.checkHostLocked(username); err != nil {
		r.mu.Unlock()
		return shared.RoomInfo{}, err
	}
	if r.phase != PhaseSetup {
		r.mu.Unlock()
		return shared.RoomInfo{}, fmt.Errorf("%w: match in progress", ErrInvalidState)
	}
	r.settings = s
	if r.round > s.TotalRounds || r.hostScore > s.TotalRounds || r.guestScore > s.TotalRounds {
		r.resetMatchLocked()
	}
	if r.board.Size != s.BoardSize {
		r.board = game.NewBoard(s.BoardSize)
	}
	info := r.infoLocked()
	m.pushRoomInfo(info, r.humans()...)
	r.mu.Unlock()

	m.broadcastLobby()
	return info, nil
}

func (m *Manager) AddBot(username, roomID string) (shared.RoomInfo, error) {
	r, err := m.get(roomID)
	if err != nil {
		return shared.RoomInfo{}, err
	}

	r.mu.Lock()
	if err := r.checkHostLocked(username); err != nil {
		r.mu.Unlock()
		return shared.RoomInfo{}, err
	}
	if !r.guest.IsZero() {
		r.mu.Unlock()
		return shared.RoomInfo{}, ErrRoomFull
	}
	r.guest = shared.Bot()
	r.botMode = true
	info := r.infoLocked()
	m.pushRoomInfo(info, r.humans()...)
	r.mu.Unlock()

	m.log.Info().Str("room_id", roomID).Msg("bot added")
	m.broadcastLobby()
	return info, nil
}

// KickPlayer removes the guest. Kicking a human also resets the match.
func (m *Manager) KickPlayer(hostUsername, roomID, target string) (shared.RoomInfo, error) {
	r, err := m.get(roomID)
	if err != nil {
		return shared.RoomInfo{}, err
	}

	r.mu.Lock()
	if err := r.checkHostLocked(hostUsername); err != nil {
		r.mu.Unlock()
		return shared.RoomInfo{}, err
	}
	switch {
	case r.guest.IsHuman(target):
		m.pushKicked(target, kickedReason)
		r.guest = shared.Participant{}
		r.botMode = false
		r.resetMatchLocked()
	case r.guest.IsBot() && target == shared.BotName:
		r.guest = shared.Participant{}
		r.botMode = false
		r.stopLocked()
	default:
		r.mu.Unlock()
		return shared.RoomInfo{}, fmt.Errorf("%w: %q is not the guest", ErrInvalidState, target)
	}
	info := r.infoLocked()
	m.pushRoomInfo(info, r.humans()...)
	r.mu.Unlock()

	m.log.Info().Str("room_id", roomID).Str("target", target).Msg("guest kicked")
	m.broadcastLobby()
	return info, nil
}

// LeaveRoom frees the guest seat, or destroys the room when the host
// leaves.
func (m *Manager) LeaveRoom(username, roomID string) error {
	r, err := m.get(roomID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	if _, ok := r.sideOf(username); !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: not in this room", ErrUnauthorized)
	}
	r.mu.Unlock()

	m.leave(r, username, hostLeftReason, false)
	m.broadcastLobby()
	return nil
}

func (m *Manager) SendChat(username, roomID, text string) error {
	if err := ValidateMessage(text); err != nil {
		return err
	}
	r, err := m.get(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if _, ok := r.sideOf(username); !ok {
		return fmt.Errorf("%w: not in this room", ErrUnauthorized)
	}
	msg := shared.ChatMessage{Sender: username, Text: text, Timestamp: m.now()}
	r.appendChatLocked(msg)
	m.pushChat(msg, r.humans()...)
	return nil
}

func ValidateMessage(text string) error {
	switch {
	case strings.TrimSpace(text) == "":
		return fmt.Errorf("%w: empty", ErrInvalidMessage)
	case len(text) > MaxMessageLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidMessage, MaxMessageLength)
	case !utf8.ValidString(text):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidMessage)
	}
	return nil
}

// Close stops every room timer. Rooms stay listed but no longer change on
// their own.
func (m *Manager) Close() {
	for _, r := range m.store.List() {
		r.mu.Lock()
		r.stopLocked()
		r.mu.Unlock()
	}
}

func (m *Manager) get(roomID string) (*Room, error) {
	r, ok := m.store.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return r, nil
}

func (r *Room) checkHostLocked(username string) error {
	if r.closed {
		return ErrRoomNotFound
	}
	if !r.host.IsHuman(username) {
		return fmt.Errorf("%w: only the host can do that", ErrUnauthorized)
	}
	return nil
}

func (m *Manager) depart(username, hostReason string, notifyHost bool) {
	r, ok := m.store.FindByParticipant(username)
	if !ok {
		return
	}
	m.leave(r, username, hostReason, notifyHost)
}

// leave applies the leave policy: a departing guest frees the seat and
// stops the round, a departing host closes the room.
func (m *Manager) leave(r *Room, username, hostReason string, notifyHost bool) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	if r.host.IsHuman(username) {
		if !r.guest.IsZero() && !r.guest.IsBot() {
			m.pushKicked(r.guest.Name(), hostReason)
		}
		r.closeLocked()
		r.mu.Unlock()
		m.store.Remove(r.id)
		m.log.Info().Str("room_id", r.id).Str("username", username).Msg("room closed")
		return
	}

	if !r.guest.IsHuman(username) {
		r.mu.Unlock()
		return
	}
	r.guest = shared.Participant{}
	r.stopLocked()
	host := r.host.Name()
	m.pushRoomInfo(r.infoLocked(), host)
	if notifyHost {
		m.pushChat(shared.ChatMessage{
			Sender:    systemChatSender,
			Text:      opponentLeftNote,
			Timestamp: m.now(),
		}, host)
	}
	r.mu.Unlock()
	m.log.Info().Str("room_id", r.id).Str("username", username).Msg("guest left")
}

package room

import (
	"caro/internal/session"
	"caro/internal/shared"
)

// Sessions is what the manager needs from the session registry.
type Sessions interface {
	Register(username string, ep session.Endpoint) error
	Remove(username string) bool
	Touch(username string)
	Contains(username string) bool
	Usernames() []string
	Push(username, event string, fn func(session.Endpoint) error) bool
	Broadcast(event string, fn func(session.Endpoint) error)
}

// The push helpers below only enqueue, so they are safe to call with a
// room lock held. Calling them under the lock keeps one room's pushes in
// order per recipient.

func (m *Manager) pushRoomInfo(info shared.RoomInfo, to ...string) {
	for _, name := range to {
		m.sessions.Push(name, "room_info", func(ep session.Endpoint) error {
			return ep.OnRoomInfoUpdate(info)
		})
	}
}

func (m *Manager) pushState(state shared.GameState, to ...string) {
	for _, name := range to {
		m.sessions.Push(name, "game_state", func(ep session.Endpoint) error {
			return ep.OnGameStateUpdate(state)
		})
	}
}

func (m *Manager) pushChat(msg shared.ChatMessage, to ...string) {
	for _, name := range to {
		m.sessions.Push(name, "chat", func(ep session.Endpoint) error {
			return ep.OnChatMessageReceived(msg)
		})
	}
}

func (m *Manager) pushEnded(summary string, to ...string) {
	for _, name := range to {
		m.sessions.Push(name, "game_ended", func(ep session.Endpoint) error {
			return ep.OnGameEnded(summary)
		})
	}
}

func (m *Manager) pushKicked(username, reason string) {
	m.sessions.Push(username, "kicked", func(ep session.Endpoint) error {
		return ep.OnKicked(reason)
	})
}

func (m *Manager) pushLobby(username string) {
	rooms := m.AllRooms()
	m.sessions.Push(username, "lobby", func(ep session.Endpoint) error {
		return ep.OnLobbyUpdate(rooms)
	})
}

// broadcastLobby reads every room, so it must run with no room lock held.
func (m *Manager) broadcastLobby() {
	rooms := m.AllRooms()
	m.sessions.Broadcast("lobby", func(ep session.Endpoint) error {
		return ep.OnLobbyUpdate(rooms)
	})
}

func (m *Manager) broadcastUsers() {
	users := m.sessions.Usernames()
	m.sessions.Broadcast("users", func(ep session.Endpoint) error {
		return ep.OnUserListUpdate(users)
	})
}

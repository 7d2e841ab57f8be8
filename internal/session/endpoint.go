package session

import "caro/internal/shared"

// Endpoint is the push side of a connected client. Every call may fail or
// block on a slow network; the registry never calls it on the caller's
// goroutine.
type Endpoint interface {
	OnLobbyUpdate(rooms []shared.RoomInfo) error
	OnUserListUpdate(usernames []string) error
	OnRoomInfoUpdate(room shared.RoomInfo) error
	OnGameStateUpdate(state shared.GameState) error
	OnChatMessageReceived(msg shared.ChatMessage) error
	OnGameEnded(summary string) error
	OnKicked(reason string) error
	Ping() error
}

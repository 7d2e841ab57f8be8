package ws

import "caro/internal/session"

// RoomManager is the slice of the game orchestrator the socket layer
// drives.
type RoomManager interface {
	Login(username string, ep session.Endpoint) error
	SendHeartbeat(username string)
	PlaceMove(username, roomID string, row, col int) error
	SendChat(username, roomID, text string) error
}

package room

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrUnauthorized    = errors.New("not allowed")
	ErrInvalidState    = errors.New("invalid room state")
	ErrAlreadyInRoom   = errors.New("already in a room")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrInvalidMessage  = errors.New("invalid chat message")
	ErrInvalidSettings = errors.New("invalid settings")
)

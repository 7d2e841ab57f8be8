package http

import "caro/internal/shared"

// UserRequest identifies the caller. There is no authentication beyond
// the username a session was opened with.
type UserRequest struct {
	Username string `json:"username" binding:"required"`
}

// CreateRoomRequest represents the payload for POST /api/rooms. Missing
// settings fall back to the defaults.
type CreateRoomRequest struct {
	Username string           `json:"username" binding:"required"`
	Settings *shared.Settings `json:"settings"`
}

type SettingsRequest struct {
	Username string          `json:"username" binding:"required"`
	Settings shared.Settings `json:"settings"`
}

type KickRequest struct {
	Username string `json:"username" binding:"required"`
	Target   string `json:"target" binding:"required"`
}

// MoveRequest uses pointers so that row 0 and column 0 pass the required
// check.
type MoveRequest struct {
	Username string `json:"username" binding:"required"`
	Row      *int   `json:"row" binding:"required"`
	Col      *int   `json:"col" binding:"required"`
}

type ChatRequest struct {
	Username string `json:"username" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

package http

import (
	"errors"
	"net/http"

	"caro/internal/room"
	"caro/internal/session"
	"caro/internal/shared"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrRoomFull),
		errors.Is(err, room.ErrAlreadyInRoom),
		errors.Is(err, room.ErrInvalidState),
		errors.Is(err, session.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, room.ErrUnauthorized),
		errors.Is(err, room.ErrNotLoggedIn):
		return http.StatusForbidden
	case errors.Is(err, room.ErrInvalidSettings),
		errors.Is(err, room.ErrInvalidMessage),
		errors.Is(err, session.ErrInvalidUsername):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorResponse{Error: err.Error()})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload: " + err.Error()})
		return false
	}
	return true
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func OnlineUsersHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": rm.OnlineUsers()})
	}
}

func ListRoomsHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rm.AllRooms()})
	}
}

func GetRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := rm.Room(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": info})
	}
}

func GetStateHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := rm.State(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": st})
	}
}

func CreateRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if !bind(c, &req) {
			return
		}
		settings := shared.DefaultSettings()
		if req.Settings != nil {
			settings = *req.Settings
		}
		info, err := rm.CreateRoom(req.Username, settings)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"room": info})
	}
}

func UpdateSettingsHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SettingsRequest
		if !bind(c, &req) {
			return
		}
		info, err := rm.UpdateRoomSettings(req.Username, c.Param("id"), req.Settings)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": info})
	}
}

func JoinRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		info, err := rm.JoinRoom(req.Username, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": info})
	}
}

func LeaveRoomHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		if err := rm.LeaveRoom(req.Username, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func KickHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req KickRequest
		if !bind(c, &req) {
			return
		}
		info, err := rm.KickPlayer(req.Username, c.Param("id"), req.Target)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": info})
	}
}

func AddBotHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		info, err := rm.AddBot(req.Username, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": info})
	}
}

func StartGameHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		if err := rm.StartGame(req.Username, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func MoveHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MoveRequest
		if !bind(c, &req) {
			return
		}
		if err := rm.PlaceMove(req.Username, c.Param("id"), *req.Row, *req.Col); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ChatHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if !bind(c, &req) {
			return
		}
		if err := rm.SendChat(req.Username, c.Param("id"), req.Text); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func LogoutHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		rm.Logout(req.Username)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func HeartbeatHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if !bind(c, &req) {
			return
		}
		rm.SendHeartbeat(req.Username)
		c.Status(http.StatusNoContent)
	}
}

package http

import (
	"time"

	"caro/internal/api/ws"
	"caro/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func NewRouter(rm *room.Manager, hub *ws.Hub, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", HealthHandler())

	// Login happens on the websocket handshake: the socket is the push
	// endpoint for the session.
	r.GET("/ws", hub.HandleWS)

	api := r.Group("/api")
	{
		api.GET("/users", OnlineUsersHandler(rm))
		api.POST("/logout", LogoutHandler(rm))
		api.POST("/heartbeat", HeartbeatHandler(rm))

		cfg := NewConfigHandler(rm)
		api.GET("/config/timing", cfg.TimingHandler)
		api.GET("/config/weights", cfg.WeightsHandler)

		// --- ROOM ENDPOINTS ---
		api.GET("/rooms", ListRoomsHandler(rm))
		api.POST("/rooms", CreateRoomHandler(rm))
		api.GET("/rooms/:id", GetRoomHandler(rm))
		api.PUT("/rooms/:id/settings", UpdateSettingsHandler(rm))
		api.POST("/rooms/:id/join", JoinRoomHandler(rm))
		api.POST("/rooms/:id/leave", LeaveRoomHandler(rm))
		api.POST("/rooms/:id/kick", KickHandler(rm))
		api.POST("/rooms/:id/bot", AddBotHandler(rm))

		// --- GAME ENDPOINTS ---
		api.GET("/rooms/:id/state", GetStateHandler(rm))
		api.POST("/rooms/:id/start", StartGameHandler(rm))
		api.POST("/rooms/:id/move", MoveHandler(rm))
		api.POST("/rooms/:id/chat", ChatHandler(rm))
	}

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

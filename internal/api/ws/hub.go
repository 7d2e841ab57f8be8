package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"caro/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub accepts websocket connections, logs their user in and routes the
// frames they send to the room manager. Closing a socket does not log the
// user out; the liveness monitor notices the missing heartbeats.
type Hub struct {
	mu       sync.Mutex
	clients  map[*Client]struct{}
	rooms    RoomManager
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(rooms RoomManager, log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   rooms,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

// HandleWS upgrades GET /ws?username=... and runs the connection until it
// closes.
func (h *Hub) HandleWS(c *gin.Context) {
	username := c.Query("username")
	if err := session.ValidateUsername(username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h, conn, username)
	if err := h.rooms.Login(username, client); err != nil {
		h.reject(conn, err)
		return
	}
	_ = client.emit("login_ok", gin.H{"username": username})

	h.add(client)
	defer h.remove(client)

	h.log.Info().Str("username", username).Msg("websocket connected")
	go client.writePump()
	client.readPump()
	h.log.Info().Str("username", username).Msg("websocket closed")
}

// reject reports a failed login on the raw socket and closes it.
func (h *Hub) reject(conn *websocket.Conn, err error) {
	h.log.Info().Err(err).Msg("websocket login rejected")
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(message{Action: "error", Data: gin.H{"error": err.Error()}})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "login rejected"))
	_ = conn.Close()
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Close drops every open connection.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

type movePayload struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type chatPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

func (h *Hub) dispatch(c *Client, msg inbound) {
	var err error
	switch msg.Action {
	case "heartbeat":
		h.rooms.SendHeartbeat(c.username)
	case "place_move":
		var p movePayload
		if err = json.Unmarshal(msg.Data, &p); err == nil {
			err = h.rooms.PlaceMove(c.username, p.RoomID, p.Row, p.Col)
		}
	case "send_chat":
		var p chatPayload
		if err = json.Unmarshal(msg.Data, &p); err == nil {
			err = h.rooms.SendChat(c.username, p.RoomID, p.Text)
		}
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}

	if err != nil {
		h.log.Debug().Err(err).Str("username", c.username).Str("action", msg.Action).Msg("action failed")
		_ = c.emit("error", gin.H{"action": msg.Action, "error": err.Error()})
	}
}

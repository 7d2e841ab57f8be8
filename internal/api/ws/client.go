package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"caro/internal/shared"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrSlowClient = errors.New("client send buffer full")
)

type message struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

type inbound struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type frame struct {
	ping    bool
	payload []byte
}

// Client is one websocket connection. It is the session endpoint of the
// user who opened it; only writePump writes to the socket.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	username string

	send      chan frame
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, username string) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		username: username,
		send:     make(chan frame, sendBuffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) Username() string { return c.username }

func (c *Client) enqueue(f frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSlowClient
	}
}

func (c *Client) emit(action string, data any) error {
	b, err := json.Marshal(message{Action: action, Data: data})
	if err != nil {
		return err
	}
	return c.enqueue(frame{payload: b})
}

func (c *Client) OnLobbyUpdate(rooms []shared.RoomInfo) error {
	return c.emit("lobby_update", rooms)
}

func (c *Client) OnUserListUpdate(usernames []string) error {
	return c.emit("user_list_update", usernames)
}

func (c *Client) OnRoomInfoUpdate(room shared.RoomInfo) error {
	return c.emit("room_info_update", room)
}

func (c *Client) OnGameStateUpdate(state shared.GameState) error {
	return c.emit("game_state_update", state)
}

func (c *Client) OnChatMessageReceived(msg shared.ChatMessage) error {
	return c.emit("chat_message", msg)
}

func (c *Client) OnGameEnded(summary string) error {
	return c.emit("game_ended", summary)
}

func (c *Client) OnKicked(reason string) error {
	return c.emit("kicked", reason)
}

// Ping sends a websocket ping; the pong counts as a heartbeat.
func (c *Client) Ping() error {
	return c.enqueue(frame{ping: true})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.hub.rooms.SendHeartbeat(c.username)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn().Err(err).Str("username", c.username).Msg("websocket read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			var err error
			if f.ping {
				err = c.conn.WriteMessage(websocket.PingMessage, nil)
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, f.payload)
			}
			if err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 16 * 1024
	sendBufferSize = 64
)

// Client is one live websocket connection tracked by the hub, together
// with its identity binding and the set of rooms it has joined.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Guarded by hub.mu.
	identity string
	rooms    map[string]struct{}
}

// ServeConn registers an upgraded connection with the hub and runs its
// read and write pumps. If the connection was authenticated over the
// token query param the identity is bound immediately; otherwise the
// client is anonymous until it sends an identify event. Blocks until the
// connection drops.
func (h *Hub) ServeConn(conn *websocket.Conn, role, participantID string) {
	c := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]struct{}),
	}
	h.register(c)
	if role != "" && participantID != "" {
		h.identify(c, role, participantID)
	}

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.ErrorLogger.Printf("websocket read: %v", err)
			}
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame dispatches one inbound frame. Unknown events and malformed
// payloads are logged and dropped; they never tear down the connection.
func (c *Client) handleFrame(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		utils.ErrorLogger.Printf("websocket frame: %v", err)
		return
	}

	switch env.Event {
	case EventIdentify:
		var p IdentifyPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.Role == "" || p.ParticipantID == "" {
			utils.ErrorLogger.Printf("bad identify payload: %s", env.Data)
			return
		}
		if p.Role != RoleStudent && p.Role != RoleVendor && p.Role != RoleAdmin {
			utils.ErrorLogger.Printf("identify with unknown role %q", p.Role)
			return
		}
		c.hub.identify(c, p.Role, p.ParticipantID)

	case EventChatJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.OrderID == "" {
			utils.ErrorLogger.Printf("bad chat:join payload: %s", env.Data)
			return
		}
		c.hub.join(c, p.OrderID)
		// Confirm every join, repeats included, so the caller can treat
		// the operation as idempotent.
		if frame, err := Marshal(EventChatJoined, JoinPayload{OrderID: p.OrderID}); err == nil {
			select {
			case c.send <- frame:
			default:
			}
		}

	case EventChatMessage:
		// Non-durable fallback path: relay to the room without touching
		// the log. The empty message id marks it as unconfirmed.
		var p ChatSendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			utils.ErrorLogger.Printf("bad chat:message payload: %s", env.Data)
			return
		}
		text := strings.TrimSpace(p.Text)
		if p.OrderID == "" || p.From == "" || text == "" {
			return
		}
		c.hub.ChatMessage(models.ChatMessage{
			OrderID:   p.OrderID,
			From:      p.From,
			Text:      text,
			Timestamp: time.Now(),
		})

	default:
		utils.ErrorLogger.Printf("unknown websocket event %q", env.Event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Followers only send control frames.
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client follows the transcript of one review session.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	// Send holds encoded envelopes waiting to be written.
	Send chan []byte
}

// newClient queues the backlog ahead of live events, so a late follower sees
// the transcript in order.
func newClient(hub *Hub, conn *websocket.Conn, sessionID string, backlog [][]byte) *Client {
	size := sendBuffer
	if len(backlog) >= size/2 {
		size = len(backlog) + sendBuffer
	}
	c := &Client{Hub: hub, Conn: conn, SessionID: sessionID, Send: make(chan []byte, size)}
	for _, msg := range backlog {
		c.Send <- msg
	}
	return c
}

// Attach registers conn as a follower of sessionID and blocks until the
// connection closes. backlog is written before any live event.
func Attach(hub *Hub, conn *websocket.Conn, sessionID string, backlog [][]byte) {
	c := newClient(hub, conn, sessionID, backlog)
	if !hub.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("HUB", "Follower closed unexpectedly", map[string]interface{}{"session_id": c.SessionID, "error": err.Error()})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, envelope); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// Client is one browser tab's telemetry stream.
type Client struct {
	SessionID string
	UserID    string
	UserRole  string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte

	cancel   context.CancelFunc
	stopOnce sync.Once
}

// IncomingMessage is what a browser may send; only pings are understood.
type IncomingMessage struct {
	Type string `json:"type"`
}

// NewClient wraps conn. cancel stops whatever feeds the client and is
// called once when the client leaves the hub.
func NewClient(sessionID, userID, userRole string, conn *websocket.Conn, hub *Hub, cancel context.CancelFunc) *Client {
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		UserRole:  userRole,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, 256),
		cancel:    cancel,
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
	})
}

// ReadPump reads until the peer goes away, answering application pings.
func (c *Client) ReadPump() {
	defer func() {
		c.stop()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}
		if msg.Type == "ping" {
			c.hub.SendToClient(c, map[string]string{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// Each queued payload is its own frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

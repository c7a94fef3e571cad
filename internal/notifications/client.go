package notifications

import (
	"context"
	"time"

	"tribehub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames.
	maxMessageSize = 512
)

// Client is one websocket subscriber of the event stream.
type Client struct {
	hub *EventHub

	// Conn is nil for clients registered without a socket.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// Subscriber identifies the connection in logs; "anonymous" when unauthenticated.
	Subscriber string

	// Entity limits delivery to events of one entity kind; empty receives everything.
	Entity string
}

func newClient(hub *EventHub, conn *websocket.Conn, subscriber, entity string) *Client {
	return &Client{
		hub:        hub,
		Conn:       conn,
		Subscriber: subscriber,
		Entity:     entity,
		Send:       make(chan []byte, 256),
	}
}

func (c *Client) wants(entity string) bool {
	return c.Entity == "" || c.Entity == entity
}

// ReadPump discards inbound frames and unregisters the client when the peer goes away.
func (c *Client) ReadPump() {
	reason := "closed"
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
		c.hub.log.LogDisconnect(context.Background(), c.Subscriber, reason)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				reason = "error"
				c.hub.log.LogError(context.Background(), c.Subscriber, err)
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues message without blocking. A full buffer drops the message and queues a
// gap notice so the subscriber can re-read the journal.
func (c *Client) trySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name()).Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name()).Inc()
		select {
		case c.Send <- gapNotice:
		default:
		}
	}
}

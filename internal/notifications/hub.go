package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tribehub/internal/models"
	"tribehub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerSubscriber = 12
	maxTotalConns         = 10000
)

var (
	ErrServerFull     = errors.New("server connection limit reached")
	ErrSubscriberFull = errors.New("subscriber connection limit reached")
	ErrHubClosed      = errors.New("event hub is shut down")
)

var gapNotice = []byte(`{"type":"events_dropped","payload":{"reason":"buffer_full"}}`)

// Message is the envelope written to event stream subscribers.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventHub delivers committed events to websocket subscribers. It is a ledger sink in
// single-process deployments and is fed from redis via StartWiring otherwise.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perSub  map[string]int
	closed  bool
	log     *observability.WSLogger
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*Client]struct{}),
		perSub:  make(map[string]int),
		log:     observability.NewWSLogger("events"),
	}
}

func (h *EventHub) Name() string { return "websocket" }

// Register adds a subscriber connection, optionally limited to one entity kind.
func (h *EventHub) Register(conn *websocket.Conn, subscriber, entity string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrServerFull
	}
	if h.perSub[subscriber] >= maxConnsPerSubscriber {
		return nil, ErrSubscriberFull
	}

	client := newClient(h, conn, subscriber, entity)
	h.clients[client] = struct{}{}
	h.perSub[subscriber]++
	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(context.Background(), subscriber, entity)
	return client, nil
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *EventHub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.perSub[c.Subscriber]--; h.perSub[c.Subscriber] <= 0 {
		delete(h.perSub, c.Subscriber)
	}
	close(c.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of registered clients.
func (h *EventHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers events straight to subscribers.
func (h *EventHub) Publish(_ context.Context, events []models.Event) error {
	for i := range events {
		payload, err := json.Marshal(&events[i])
		if err != nil {
			return err
		}
		h.deliver(events[i].Entity, payload)
	}
	return nil
}

// Dispatch delivers one JSON-encoded event received from the redis channel.
func (h *EventHub) Dispatch(payload string) {
	var head struct {
		Entity string `json:"entity"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		observability.GlobalLogger.Warn("dropping malformed event payload", slog.String("error", err.Error()))
		return
	}
	h.deliver(head.Entity, []byte(payload))
}

func (h *EventHub) deliver(entity string, event []byte) {
	msg, err := json.Marshal(Message{Type: "ledger_event", Payload: event})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.wants(entity) {
			c.trySend(msg)
		}
	}
}

// StartWiring feeds the hub from the redis event channel.
func (h *EventHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, h.Dispatch)
}

// Shutdown sends a close frame to every subscriber and drops them.
func (h *EventHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		if c.Conn != nil {
			if err := c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait)); err != nil {
				h.log.LogError(context.Background(), c.Subscriber, err)
			}
		}
		close(c.Send)
		delete(h.clients, c)
		observability.WebSocketConnectionsTotal.Dec()
	}
	h.perSub = make(map[string]int)
	return nil
}

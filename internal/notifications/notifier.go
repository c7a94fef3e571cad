// Package notifications fans committed ledger events out to redis, kafka and websocket
// subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"tribehub/internal/models"
	"tribehub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the redis channel every committed event is published to.
const EventsChannel = "ledger:events"

// Notifier publishes committed events into redis. A nil client turns it into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) Name() string { return "redis" }

// Publish sends each event as one JSON message, in commit order.
func (n *Notifier) Publish(ctx context.Context, events []models.Event) error {
	if n.rdb == nil {
		return nil
	}
	for i := range events {
		payload, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", events[i].ID, err)
		}
		if err := n.rdb.Publish(ctx, EventsChannel, string(payload)).Err(); err != nil {
			return fmt.Errorf("publish event %d: %w", events[i].ID, err)
		}
	}
	return nil
}

// StartEventSubscriber subscribes to EventsChannel and calls onMessage for each payload
// until ctx is cancelled.
func (n *Notifier) StartEventSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}

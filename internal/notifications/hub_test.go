package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"tribehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, c *Client) models.Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		require.Equal(t, "ledger_event", msg.Type)
		var ev models.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		return ev
	default:
		t.Fatal("no message queued")
		return models.Event{}
	}
}

func TestEventHub_EntityFilter(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	all, err := hub.Register(nil, "alice", "")
	require.NoError(t, err)
	tribes, err := hub.Register(nil, "bob", "tribe")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(context.Background(), sampleEvents()))

	assert.Equal(t, "TribeCreated", readMessage(t, all).Name)
	assert.Equal(t, "MemberJoined", readMessage(t, all).Name)
	assert.Equal(t, "TribeCreated", readMessage(t, tribes).Name)
	assert.Empty(t, tribes.Send)

	_ = hub.Shutdown(context.Background())
}

func TestEventHub_ConnectionLimits(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	var clients []*Client
	for i := 0; i < maxConnsPerSubscriber; i++ {
		c, err := hub.Register(nil, "carol", "")
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := hub.Register(nil, "carol", "")
	assert.ErrorIs(t, err, ErrSubscriberFull)

	hub.Unregister(clients[0])
	hub.Unregister(clients[0])
	_, err = hub.Register(nil, "carol", "")
	assert.NoError(t, err)
	assert.Equal(t, maxConnsPerSubscriber, hub.Count())

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())
	_, err = hub.Register(nil, "carol", "")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestEventHub_BackpressureQueuesGapNotice(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	c, err := hub.Register(nil, "dave", "")
	require.NoError(t, err)

	for i := 0; i < cap(c.Send); i++ {
		c.Send <- []byte("filler")
	}
	require.NoError(t, hub.Publish(context.Background(), sampleEvents()[:1]))
	assert.Len(t, c.Send, cap(c.Send))

	_ = hub.Shutdown(context.Background())
}

func TestEventHub_DispatchIgnoresMalformedPayloads(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	c, err := hub.Register(nil, "erin", "")
	require.NoError(t, err)

	hub.Dispatch("not json")
	assert.Empty(t, c.Send)

	hub.Dispatch(`{"id":9,"name":"PostCreated","entity":"post","entity_id":"3"}`)
	assert.Equal(t, "PostCreated", readMessage(t, c).Name)

	_ = hub.Shutdown(context.Background())
}

func TestEventHub_WiredThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewEventHub()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register(nil, "frank", "membership")
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), sampleEvents()))
	assert.Eventually(t, func() bool { return len(c.Send) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Equal(t, "MemberJoined", readMessage(t, c).Name)

	_ = hub.Shutdown(context.Background())
}

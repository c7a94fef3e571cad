package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tribehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: 1, OpSeq: 4, Op: "createTribe", Name: "TribeCreated", Entity: "tribe", EntityID: "1"},
		{ID: 2, OpSeq: 4, Op: "createTribe", Name: "MemberJoined", Entity: "membership", EntityID: "1"},
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.Publish(context.Background(), sampleEvents()))
	assert.NoError(t, n.StartEventSubscriber(context.Background(), func(string) {}))
}

func TestNotifier_PublishReachesSubscriber(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 4)
	require.NoError(t, n.StartEventSubscriber(ctx, func(payload string) { payloads <- payload }))

	require.NoError(t, n.Publish(context.Background(), sampleEvents()))

	var names []string
	assert.Eventually(t, func() bool {
		select {
		case p := <-payloads:
			var ev models.Event
			require.NoError(t, json.Unmarshal([]byte(p), &ev))
			names = append(names, ev.Name)
		default:
		}
		return len(names) == 2
	}, testEventuallyTimeout, testPollInterval)
	assert.Equal(t, []string{"TribeCreated", "MemberJoined"}, names)
}

func TestNotifier_SubscriberSurvivesPanics(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 4)
	require.NoError(t, n.StartEventSubscriber(ctx, func(payload string) {
		seen <- payload
		if len(seen) == 1 {
			panic("boom")
		}
	}))

	events := sampleEvents()
	require.NoError(t, n.Publish(context.Background(), events[:1]))
	require.NoError(t, n.Publish(context.Background(), events[1:]))

	assert.Eventually(t, func() bool { return len(seen) == 2 }, testEventuallyTimeout, testPollInterval)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
	// block holds every write until its context expires.
	block bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func (f *fakeWriter) written() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.msgs...)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)

	require.NoError(t, p.Publish(context.Background(), sampleEvents()))
	require.NoError(t, p.Publish(context.Background(), nil))
	require.NoError(t, p.Close())

	msgs := fw.written()
	require.Len(t, msgs, 2)
	assert.Equal(t, "tribe:1", string(msgs[0].Key))
	assert.Equal(t, "membership:1", string(msgs[1].Key))
	assert.Equal(t, "event", msgs[0].Headers[0].Key)
	assert.Equal(t, "TribeCreated", string(msgs[0].Headers[0].Value))

	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvents()), ErrKafkaClosed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	t.Parallel()
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker down")})

	require.NoError(t, p.Publish(context.Background(), sampleEvents()))
	require.NoError(t, p.Close())
	assert.Equal(t, int64(2), p.Failed())
}

func TestKafkaPublisher_UnreachableBrokerDoesNotBlock(t *testing.T) {
	t.Parallel()
	p := NewKafkaPublisherWithWriter(&fakeWriter{block: true},
		WithKafkaQueueSize(1),
		WithKafkaWriteTimeout(50*time.Millisecond),
	)

	start := time.Now()
	var full int
	for i := 0; i < 5; i++ {
		if err := p.Publish(context.Background(), sampleEvents()); errors.Is(err, ErrKafkaQueueFull) {
			full++
		}
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond, "publish must not wait on the broker")
	assert.GreaterOrEqual(t, full, 3)
	assert.Equal(t, int64(2*full), p.Dropped())

	require.NoError(t, p.Close())
	assert.Equal(t, int64(10-2*full), p.Failed())
}

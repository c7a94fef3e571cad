package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tribehub/internal/models"
	"tribehub/internal/observability"

	"github.com/segmentio/kafka-go"
)

const (
	defaultKafkaQueueSize    = 1024
	defaultKafkaWriteTimeout = 5 * time.Second
	defaultKafkaMaxAttempts  = 3
)

// ErrKafkaQueueFull is returned when committed batches arrive faster than the broker
// accepts them. The batch is dropped; the journal still holds it.
var ErrKafkaQueueFull = errors.New("kafka publish queue is full")

// ErrKafkaClosed is returned by Publish after Close.
var ErrKafkaClosed = errors.New("kafka publisher is closed")

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher exports committed events to a kafka topic, keyed by entity so that one
// entity's events stay ordered within a partition. Publish only enqueues; a single
// dispatcher goroutine writes batches in commit order, so a slow broker never holds up
// the ledger.
type KafkaPublisher struct {
	writer       Writer
	queue        chan []kafka.Message
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	failed  atomic.Int64
	dropped atomic.Int64
}

// KafkaOption tunes a KafkaPublisher.
type KafkaOption func(*KafkaPublisher)

// WithKafkaQueueSize bounds the number of batches waiting for the broker.
func WithKafkaQueueSize(n int) KafkaOption {
	return func(p *KafkaPublisher) {
		if n > 0 {
			p.queue = make(chan []kafka.Message, n)
		}
	}
}

// WithKafkaWriteTimeout bounds each batch write.
func WithKafkaWriteTimeout(d time.Duration) KafkaOption {
	return func(p *KafkaPublisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// NewKafkaPublisher writes to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  defaultKafkaMaxAttempts,
		WriteTimeout: defaultKafkaWriteTimeout,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(w, opts...)
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		writer:       w,
		queue:        make(chan []kafka.Message, defaultKafkaQueueSize),
		writeTimeout: defaultKafkaWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.dispatch()
	return p
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish queues the batch for the dispatcher without waiting on the broker.
func (p *KafkaPublisher) Publish(_ context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for i := range events {
		value, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", events[i].ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(events[i].Entity + ":" + events[i].EntityID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(events[i].Name)},
				{Key: "op", Value: []byte(events[i].Op)},
			},
		})
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrKafkaClosed
	}
	select {
	case p.queue <- msgs:
		return nil
	default:
		p.dropped.Add(int64(len(msgs)))
		return ErrKafkaQueueFull
	}
}

func (p *KafkaPublisher) dispatch() {
	defer close(p.done)
	for msgs := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		err := p.writer.WriteMessages(ctx, msgs...)
		cancel()
		if err != nil {
			p.failed.Add(int64(len(msgs)))
			observability.EventPublishFailures.WithLabelValues(p.Name()).Inc()
			observability.LogAsyncOperationError(context.Background(), "kafka_write", err, map[string]interface{}{
				"messages": len(msgs),
			})
		}
	}
}

// Failed returns the number of messages the broker did not accept.
func (p *KafkaPublisher) Failed() int64 { return p.failed.Load() }

// Dropped returns the number of messages discarded because the queue was full.
func (p *KafkaPublisher) Dropped() int64 { return p.dropped.Load() }

// Close stops accepting batches, drains the queue and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

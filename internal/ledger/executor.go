// Package ledger runs every state-changing operation as one serialized, atomic step:
// a database transaction holding the ledger head row lock, with the caller's payment
// escrowed up front and an append-only event journal written before commit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tribehub/internal/models"
	"tribehub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNoop rolls back an operation that changed nothing.
var errNoop = errors.New("operation produced no events")

// Sink receives committed events in commit order. Publish runs with the ledger lock held,
// so a sink backed by a remote peer must queue rather than wait on it.
type Sink interface {
	Name() string
	Publish(ctx context.Context, events []models.Event) error
}

// Call describes one invocation.
type Call struct {
	Op     string
	Caller models.Address
	// Value is the payment attached by the caller; only Payable calls may carry one.
	Value   int64
	Payable bool
}

// Receipt reports a committed operation. Seq is zero for operations that were no-ops.
type Receipt struct {
	Seq    uint64
	Events []models.Event
	Refund int64
}

// Noop reports whether the operation left the ledger unchanged.
func (r *Receipt) Noop() bool {
	return r.Seq == 0
}

// Executor serializes operations over a database.
type Executor struct {
	db    *gorm.DB
	mu    sync.Mutex
	clock func() time.Time
	sinks []Sink
	log   *observability.OpLogger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the time source stamped on operations.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) { e.clock = clock }
}

// WithSinks registers event sinks.
func WithSinks(sinks ...Sink) Option {
	return func(e *Executor) { e.sinks = append(e.sinks, sinks...) }
}

// NewExecutor creates the ledger head row if needed and returns an Executor.
func NewExecutor(db *gorm.DB, opts ...Option) (*Executor, error) {
	if err := EnsureHead(db); err != nil {
		return nil, err
	}
	e := &Executor{
		db:    db,
		clock: time.Now,
		log:   observability.NewOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnsureHead inserts the ledger head row once.
func EnsureHead(db *gorm.DB) error {
	head := models.LedgerHead{ID: models.LedgerHeadID, SchemaVersion: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&head).Error; err != nil {
		return fmt.Errorf("create ledger head: %w", err)
	}
	return nil
}

// DB returns the handle for read-only projections outside any operation.
func (e *Executor) DB() *gorm.DB {
	return e.db
}

// Now returns the executor's clock reading.
func (e *Executor) Now() time.Time {
	return e.clock().UTC()
}

// AddSink registers a sink after construction.
func (e *Executor) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Head returns the last committed sequence number.
func (e *Executor) Head(ctx context.Context) (uint64, error) {
	var head models.LedgerHead
	if err := e.db.WithContext(ctx).First(&head, models.LedgerHeadID).Error; err != nil {
		return 0, fmt.Errorf("load ledger head: %w", err)
	}
	return head.Sequence, nil
}

// Execute runs fn as one atomic operation. Either every write fn makes, the payment
// movements and the journal entries commit together, or nothing does.
func (e *Executor) Execute(ctx context.Context, call Call, fn func(tx *Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if call.Caller.IsZero() {
		return nil, models.NewUnauthorizedError("caller identity is required")
	}
	if call.Value < 0 {
		return nil, models.NewValidationError("payment must not be negative")
	}
	if call.Value > 0 && !call.Payable {
		return nil, models.NewValidationError(fmt.Sprintf("%s does not accept payment", call.Op))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span, ctx := observability.StartLedgerSpan(ctx, call.Op)
	defer span.End()
	span.AddAttributes(attribute.String("ledger.caller", call.Caller.String()))

	start := time.Now()
	var tx *Tx
	err := e.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		var head models.LedgerHead
		if err := gtx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&head, models.LedgerHeadID).Error; err != nil {
			return fmt.Errorf("lock ledger head: %w", err)
		}

		tx = &Tx{
			DB:     gtx,
			Caller: call.Caller,
			Value:  call.Value,
			Now:    e.clock().UTC(),
			Seq:    head.Sequence + 1,
			op:     call.Op,
		}

		if call.Value > 0 {
			if err := Debit(gtx, call.Caller, call.Value, tx.Now); err != nil {
				return err
			}
			tx.held = call.Value
		}

		if err := fn(tx); err != nil {
			return err
		}

		if len(tx.events) == 0 {
			return errNoop
		}

		if tx.held > 0 {
			refund := tx.held
			if err := Credit(gtx, call.Caller, refund, tx.Now); err != nil {
				return err
			}
			if err := tx.Emit("ValueRefunded", "wallet", call.Caller, Fields{"amount": refund}); err != nil {
				return err
			}
		}

		if err := gtx.Create(&tx.events).Error; err != nil {
			return fmt.Errorf("append events: %w", err)
		}

		head.Sequence = tx.Seq
		head.UpdatedAt = tx.Now
		if err := gtx.Save(&head).Error; err != nil {
			return fmt.Errorf("advance ledger head: %w", err)
		}
		return nil
	})

	switch {
	case errors.Is(err, errNoop):
		observability.ObserveOperation(call.Op, "noop", start)
		return &Receipt{Refund: call.Value}, nil
	case err != nil:
		return nil, e.classify(ctx, span, call.Op, start, err)
	}

	observability.ObserveOperation(call.Op, "committed", start)
	observability.LedgerSequence.Set(float64(tx.Seq))
	for _, ev := range tx.events {
		observability.EventsJournaled.WithLabelValues(ev.Name).Inc()
	}
	e.log.LogCommitted(ctx, call.Op, tx.Seq, len(tx.events))
	span.AddAttributes(attribute.Int64("ledger.seq", int64(tx.Seq)))

	e.publish(ctx, tx.events)

	return &Receipt{Seq: tx.Seq, Events: tx.events, Refund: tx.held}, nil
}

func (e *Executor) classify(ctx context.Context, span *observability.Span, op string, start time.Time, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		observability.ObserveOperation(op, "rejected", start)
		e.log.LogRejected(ctx, op, appErr.Code, appErr)
		return appErr
	}
	observability.ObserveOperation(op, "failed", start)
	span.SetError(err)
	e.log.LogFailed(ctx, op, err)
	if appErr != nil {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return models.NewInternalError(err)
}

// publish fans events out while the lock is held so sinks observe commit order.
func (e *Executor) publish(ctx context.Context, events []models.Event) {
	for _, sink := range e.sinks {
		if err := sink.Publish(context.WithoutCancel(ctx), events); err != nil {
			observability.EventPublishFailures.WithLabelValues(sink.Name()).Inc()
			observability.LogAsyncOperationError(ctx, "publish_events", err, map[string]interface{}{
				"sink":   sink.Name(),
				"events": len(events),
			})
		}
	}
}

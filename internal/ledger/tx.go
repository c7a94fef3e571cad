package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"tribehub/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Fields is an event payload.
type Fields map[string]interface{}

// Tx is the context handed to an operation body. Every read and write the
// operation performs must go through DB so it joins the operation's transaction.
type Tx struct {
	DB     *gorm.DB
	Caller models.Address
	// Value is the payment attached to the call, already escrowed from the caller.
	Value int64
	Now   time.Time
	Seq   uint64

	op     string
	held   int64
	events []models.Event
}

// Emit appends an event to the operation's journal entries.
func (t *Tx) Emit(name, entity string, entityID interface{}, fields Fields) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}
	t.events = append(t.events, models.Event{
		OpSeq:       t.Seq,
		Op:          t.op,
		Name:        name,
		Entity:      entity,
		EntityID:    fmt.Sprint(entityID),
		Actor:       t.Caller,
		Payload:     datatypes.JSON(payload),
		CommittedAt: t.Now,
	})
	return nil
}

// Held returns the escrowed payment not yet paid out.
func (t *Tx) Held() int64 {
	return t.held
}

// RequirePayment fails with InsufficientPayment unless at least amount is held.
func (t *Tx) RequirePayment(amount int64) error {
	if t.held < amount {
		return models.NewInsufficientPaymentError(amount, t.held)
	}
	return nil
}

// Pay moves amount out of escrow into to's wallet.
func (t *Tx) Pay(to models.Address, amount int64, reason string) error {
	if amount <= 0 {
		return nil
	}
	if err := t.RequirePayment(amount); err != nil {
		return err
	}
	if err := Credit(t.DB, to, amount, t.Now); err != nil {
		return err
	}
	t.held -= amount
	return t.Emit("ValueTransferred", "wallet", to, Fields{
		"from":   t.Caller,
		"to":     to,
		"amount": amount,
		"reason": reason,
	})
}

// Events returns the entries emitted so far.
func (t *Tx) Events() []models.Event {
	return t.events
}

// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"tribehub/internal/database"
	"tribehub/internal/ledger"
	"tribehub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewDB opens a private in-memory database with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewExecutor returns an executor over a fresh database driven by clock.
func NewExecutor(t *testing.T, clock *Clock, opts ...ledger.Option) *ledger.Executor {
	t.Helper()
	opts = append([]ledger.Option{ledger.WithClock(clock.Now)}, opts...)
	exec, err := ledger.NewExecutor(NewDB(t), opts...)
	require.NoError(t, err)
	return exec
}

// Addr returns a deterministic account address for n.
func Addr(n int) models.Address {
	return models.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

// Fund credits account's wallet outside any ledger operation.
func Fund(t *testing.T, exec *ledger.Executor, account models.Address, amount int64) {
	t.Helper()
	require.NoError(t, ledger.Credit(exec.DB(), account, amount, exec.Now()))
}

// EventCount returns the number of journaled events with the given name.
func EventCount(t *testing.T, exec *ledger.Executor, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, exec.DB().Model(&models.Event{}).Where("name = ?", name).Count(&n).Error)
	return n
}

// Package repository provides data access layer implementations for the application.
// Repositories are bound to the handle they are built from, so a repository built from
// a ledger transaction reads and writes inside that transaction.
package repository

import (
	"fmt"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var onConflictDoNothing = clause.OnConflict{DoNothing: true}

// paginate counts the rows matched by q and loads one window of them into dest.
// An offset past the end yields an empty window with the full count.
func paginate(q *gorm.DB, offset, limit int, dest interface{}) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if int64(offset) >= total || limit <= 0 {
		return total, nil
	}
	if err := q.Session(&gorm.Session{}).Offset(offset).Limit(limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// creditBalance adds amount to the balance column of the row matching keys and
// inserts newRow when no such row exists yet.
func creditBalance(db *gorm.DB, model interface{}, keys map[string]interface{}, amount int64, now time.Time, newRow func() interface{}) error {
	if amount < 0 {
		return models.NewValidationError("credit amount must not be negative")
	}
	if amount == 0 {
		return nil
	}
	res := db.Model(model).Where(keys).Updates(map[string]interface{}{
		"balance":    gorm.Expr("balance + ?", amount),
		"updated_at": now,
	})
	if res.Error != nil {
		return fmt.Errorf("credit balance: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if err := db.Create(newRow()).Error; err != nil {
		return fmt.Errorf("create balance: %w", err)
	}
	return nil
}

// debitBalance subtracts amount only when the row holds at least amount. The check and
// the write are a single statement; a short balance is reported with what it held.
func debitBalance(db *gorm.DB, model interface{}, keys map[string]interface{}, amount int64, now time.Time, what string) error {
	if amount <= 0 {
		return models.NewValidationError("debit amount must be positive")
	}
	res := db.Model(model).Where(keys).Where("balance >= ?", amount).Updates(map[string]interface{}{
		"balance":    gorm.Expr("balance - ?", amount),
		"updated_at": now,
	})
	if res.Error != nil {
		return fmt.Errorf("debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		have, err := readBalance(db, model, keys)
		if err != nil {
			return err
		}
		return models.NewInsufficientBalanceError(what, have, amount)
	}
	return nil
}

func readBalance(db *gorm.DB, model interface{}, keys map[string]interface{}) (int64, error) {
	var balances []int64
	if err := db.Model(model).Where(keys).Pluck("balance", &balances).Error; err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if len(balances) == 0 {
		return 0, nil
	}
	return balances[0], nil
}

// insertIfAbsent inserts row and reports whether it was new.
func insertIfAbsent(db *gorm.DB, row interface{}) (bool, error) {
	res := db.Clauses(onConflictDoNothing).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

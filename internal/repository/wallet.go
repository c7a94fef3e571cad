package repository

import (
	"context"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// WalletRepository defines the interface for native value balances
type WalletRepository interface {
	Balance(ctx context.Context, account models.Address) (int64, error)
	Credit(ctx context.Context, account models.Address, amount int64, now time.Time) error
	Debit(ctx context.Context, account models.Address, amount int64, now time.Time) error
}

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func walletKeys(account models.Address) map[string]interface{} {
	return map[string]interface{}{"account": account}
}

func (r *walletRepository) Balance(ctx context.Context, account models.Address) (int64, error) {
	return readBalance(r.db.WithContext(ctx), &models.Wallet{}, walletKeys(account))
}

func (r *walletRepository) Credit(ctx context.Context, account models.Address, amount int64, now time.Time) error {
	return creditBalance(r.db.WithContext(ctx), &models.Wallet{}, walletKeys(account), amount, now, func() interface{} {
		return &models.Wallet{Account: account, Balance: amount, UpdatedAt: now}
	})
}

func (r *walletRepository) Debit(ctx context.Context, account models.Address, amount int64, now time.Time) error {
	return debitBalance(r.db.WithContext(ctx), &models.Wallet{}, walletKeys(account), amount, now, "wallet")
}

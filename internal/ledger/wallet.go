package ledger

import (
	"time"

	"tribehub/internal/models"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// Credit adds amount to account's wallet, creating it on first use.
func Credit(db *gorm.DB, account models.Address, amount int64, now time.Time) error {
	return repository.NewWalletRepository(db).Credit(db.Statement.Context, account, amount, now)
}

// Debit removes amount from account's wallet. The balance check and the update are one statement.
func Debit(db *gorm.DB, account models.Address, amount int64, now time.Time) error {
	return repository.NewWalletRepository(db).Debit(db.Statement.Context, account, amount, now)
}

// Balance returns account's wallet balance, zero when it has none.
func Balance(db *gorm.DB, account models.Address) (int64, error) {
	return repository.NewWalletRepository(db).Balance(db.Statement.Context, account)
}

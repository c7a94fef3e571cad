package models

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerHeadID is the primary key of the single ledger head row.
const LedgerHeadID = 1

// LedgerHead tracks the last committed operation. Every write locks this row.
type LedgerHead struct {
	ID            uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Sequence      uint64    `gorm:"not null;default:0" json:"sequence"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// Event is an immutable journal entry appended by a committed operation.
type Event struct {
	ID            uint64         `gorm:"primaryKey" json:"id"`
	OpSeq         uint64         `gorm:"not null;index" json:"op_seq"`
	Op            string         `gorm:"type:varchar(64);not null" json:"op"`
	Name          string         `gorm:"type:varchar(64);not null;index" json:"name"`
	Entity        string         `gorm:"type:varchar(32);not null;index:idx_events_entity" json:"entity"`
	EntityID      string         `gorm:"type:varchar(80);index:idx_events_entity" json:"entity_id"`
	Actor         Address        `gorm:"type:varchar(42);index" json:"actor"`
	Payload       datatypes.JSON `json:"payload"`
	CommittedAt   time.Time      `gorm:"not null" json:"committed_at"`
	SchemaVersion uint16         `gorm:"not null;default:1" json:"-"`
}

// Wallet holds an account's native value balance, the unit of every payment.
type Wallet struct {
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

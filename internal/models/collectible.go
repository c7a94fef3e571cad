package models

import "time"

// Collectible is a capped-supply item issued by a tribe.
type Collectible struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TribeID          uint      `gorm:"not null;index" json:"tribe_id"`
	Name             string    `gorm:"size:120;not null" json:"name"`
	Symbol           string    `gorm:"size:16" json:"symbol"`
	MetadataURI      string    `gorm:"type:text" json:"metadata"`
	MaxSupply        int64     `gorm:"not null" json:"max_supply"`
	TotalClaimed     int64     `gorm:"not null;default:0" json:"total_claimed"`
	Price            int64     `gorm:"not null;default:0" json:"price"`
	PointsRequired   int64     `gorm:"not null;default:0" json:"points_required"`
	PointTypeID      uint      `gorm:"not null;default:0" json:"point_type_id"`
	WhitelistEnabled bool      `gorm:"not null;default:false" json:"whitelist_enabled"`
	Active           bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	SchemaVersion    uint16    `gorm:"not null;default:1" json:"-"`
}

// Remaining returns the unclaimed supply.
func (c *Collectible) Remaining() int64 {
	return c.MaxSupply - c.TotalClaimed
}

// CollectibleWhitelist allows an account to claim a whitelist-gated collectible.
type CollectibleWhitelist struct {
	CollectibleID uint      `gorm:"primaryKey;autoIncrement:false" json:"collectible_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// CollectibleHolding is an account's balance of one collectible.
type CollectibleHolding struct {
	CollectibleID uint      `gorm:"primaryKey;autoIncrement:false" json:"collectible_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42);index" json:"account"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// Signature purposes recorded with consumed signatures.
const (
	SignaturePurposeRedemption = "redemption"
	SignaturePurposeDispenser  = "dispenser"
)

// UsedSignature marks a signature hash as consumed. Rows are never removed.
type UsedSignature struct {
	Hash          string    `gorm:"primaryKey;type:varchar(66)" json:"hash"`
	Purpose       string    `gorm:"type:varchar(16);not null" json:"purpose"`
	Signer        Address   `gorm:"type:varchar(42)" json:"signer"`
	Account       Address   `gorm:"type:varchar(42)" json:"account"`
	OpSeq         uint64    `gorm:"not null" json:"op_seq"`
	UsedAt        time.Time `json:"used_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// RedemptionConfigID is the primary key of the redemption config row.
const RedemptionConfigID = 1

// RedemptionConfig holds the off-chain verifier whose signatures authorize redemptions.
type RedemptionConfig struct {
	ID            uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Verifier      Address   `gorm:"type:varchar(42)" json:"verifier"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

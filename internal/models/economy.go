package models

import "time"

// PointType is a per-tribe point currency.
type PointType struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TribeID       uint      `gorm:"not null;uniqueIndex:idx_point_types_tribe_name" json:"tribe_id"`
	Name          string    `gorm:"size:64;not null;uniqueIndex:idx_point_types_tribe_name" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// PointAction maps an action identifier to the point type it awards.
type PointAction struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	ActionID      string    `gorm:"primaryKey;size:64" json:"action_id"`
	PointTypeID   uint      `gorm:"not null" json:"point_type_id"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// PointIssuer may award points within a tribe.
type PointIssuer struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// PointBalance is an account's balance of one point type. Never negative.
type PointBalance struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	PointTypeID   uint      `gorm:"primaryKey;autoIncrement:false" json:"point_type_id"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// TribeToken is the fungible token of a tribe. Created once, never replaced.
type TribeToken struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Name          string    `gorm:"size:64;not null" json:"name"`
	Symbol        string    `gorm:"size:16;not null" json:"symbol"`
	ExchangeRate  int64     `gorm:"not null;default:0" json:"exchange_rate"`
	TotalSupply   int64     `gorm:"not null;default:0" json:"total_supply"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// TribeTokenBalance is an account's holding of a tribe token.
type TribeTokenBalance struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// DispenserBalance is value held in custody for an organization.
type DispenserBalance struct {
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// DispenserSigner may authorize spends from an organization's custody balance.
type DispenserSigner struct {
	Organization  Address   `gorm:"primaryKey;type:varchar(42)" json:"organization"`
	Signer        Address   `gorm:"primaryKey;type:varchar(42)" json:"signer"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

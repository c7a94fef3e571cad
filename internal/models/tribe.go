package models

import "time"

// JoinPolicy controls how accounts become members of a tribe.
type JoinPolicy string

const (
	JoinPolicyPublic     JoinPolicy = "PUBLIC"
	JoinPolicyPrivate    JoinPolicy = "PRIVATE"
	JoinPolicyInviteOnly JoinPolicy = "INVITE_ONLY"
)

// Valid reports whether p is a known join policy.
func (p JoinPolicy) Valid() bool {
	switch p {
	case JoinPolicyPublic, JoinPolicyPrivate, JoinPolicyInviteOnly:
		return true
	}
	return false
}

// Tribe is a community namespace. Tribes are never deleted, only deactivated.
type Tribe struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:120;not null" json:"name"`
	NameKey       string     `gorm:"size:120;not null;uniqueIndex" json:"-"`
	MetadataURI   string     `gorm:"type:text" json:"metadata"`
	Admin         Address    `gorm:"type:varchar(42);not null;index" json:"admin"`
	JoinPolicy    JoinPolicy `gorm:"type:varchar(16);not null" json:"join_policy"`
	EntryFee      int64      `gorm:"not null;default:0" json:"entry_fee"`
	Active        bool       `gorm:"not null;default:true" json:"active"`
	MemberCount   int64      `gorm:"not null;default:0" json:"member_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	SchemaVersion uint16     `gorm:"not null;default:1" json:"-"`
}

// TribeAdmin lists accounts with admin authority over a tribe besides the creator.
type TribeAdmin struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// NativeCollectibleContract names the in-ledger collectible registry in join requirements.
const NativeCollectibleContract = "collectibles"

// TribeRequirement is a holding predicate an account must satisfy to join.
type TribeRequirement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TribeID       uint      `gorm:"not null;index" json:"tribe_id"`
	Contract      string    `gorm:"type:varchar(64);not null" json:"contract"`
	TokenID       uint      `gorm:"not null" json:"token_id"`
	MinAmount     int64     `gorm:"not null;default:1" json:"min_amount"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// WhitelistEntry marks an account as pre-approved for a tribe.
type WhitelistEntry struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// MemberStatus is the membership state of an account in a tribe.
type MemberStatus string

const (
	MemberStatusNone    MemberStatus = "NONE"
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusActive  MemberStatus = "ACTIVE"
	MemberStatusBanned  MemberStatus = "BANNED"
)

// Membership maps an account to a tribe. A missing row means NONE.
type Membership struct {
	TribeID       uint         `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address      `gorm:"primaryKey;type:varchar(42);index" json:"account"`
	Status        MemberStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	JoinedAt      *time.Time   `json:"joined_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	SchemaVersion uint16       `gorm:"not null;default:1" json:"-"`
}

// TribeInvite is a hashed invite code for INVITE_ONLY tribes.
type TribeInvite struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TribeID       uint       `gorm:"not null;index" json:"tribe_id"`
	CodeHash      string     `gorm:"type:varchar(66);not null;uniqueIndex" json:"-"`
	MaxUses       int64      `gorm:"not null;default:1" json:"max_uses"`
	Uses          int64      `gorm:"not null;default:0" json:"uses"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedBy     Address    `gorm:"type:varchar(42)" json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	SchemaVersion uint16     `gorm:"not null;default:1" json:"-"`
}

// TribeFollow records an account following a tribe's feed without joining.
type TribeFollow struct {
	TribeID       uint      `gorm:"primaryKey;autoIncrement:false" json:"tribe_id"`
	Account       Address   `gorm:"primaryKey;type:varchar(42);index" json:"account"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

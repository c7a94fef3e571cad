package models

import "time"

// Role is a global capability held by an account.
type Role string

const (
	// RoleDefaultAdmin is the super-admin role; it administers every other role.
	RoleDefaultAdmin Role = "DEFAULT_ADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleOrganizer    Role = "ORGANIZER"
	RoleModerator    Role = "MODERATOR"
	RoleCreator      Role = "CREATOR"
	// RoleFan is the only role an authorized assigner may hand out.
	RoleFan Role = "FAN"
	// RoleRateLimitExempt skips the post cooldown.
	RoleRateLimitExempt Role = "RATE_LIMIT_EXEMPT"
)

// KnownRoles lists every role the registry accepts.
var KnownRoles = []Role{
	RoleDefaultAdmin,
	RoleAdmin,
	RoleOrganizer,
	RoleModerator,
	RoleCreator,
	RoleFan,
	RoleRateLimitExempt,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, k := range KnownRoles {
		if k == r {
			return true
		}
	}
	return false
}

// RoleAssignment records that Account holds Role.
type RoleAssignment struct {
	Role          Role      `gorm:"primaryKey;type:varchar(32)" json:"role"`
	Account       Address   `gorm:"primaryKey;type:varchar(42);index" json:"account"`
	GrantedBy     Address   `gorm:"type:varchar(42)" json:"granted_by"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// RoleAdminGrant delegates administration of Role to holders of AdminRole.
type RoleAdminGrant struct {
	Role          Role      `gorm:"primaryKey;type:varchar(32)" json:"role"`
	AdminRole     Role      `gorm:"type:varchar(32);not null" json:"admin_role"`
	UpdatedAt     time.Time `json:"updated_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

func (RoleAdminGrant) TableName() string { return "role_admins" }

// AuthorizedAssigner may grant and revoke the FAN role.
type AuthorizedAssigner struct {
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	AuthorizedBy  Address   `gorm:"type:varchar(42)" json:"authorized_by"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

package database

import "tribehub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// New models are appended; existing entries are never removed.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.LedgerHead{},
		&models.Event{},
		&models.Wallet{},
		&models.RoleAssignment{},
		&models.RoleAdminGrant{},
		&models.AuthorizedAssigner{},
		&models.Tribe{},
		&models.TribeAdmin{},
		&models.TribeRequirement{},
		&models.WhitelistEntry{},
		&models.Membership{},
		&models.TribeInvite{},
		&models.TribeFollow{},
		&models.Post{},
		&models.PostReaction{},
		&models.Comment{},
		&models.PosterActivity{},
		&models.PointType{},
		&models.PointAction{},
		&models.PointIssuer{},
		&models.PointBalance{},
		&models.TribeToken{},
		&models.TribeTokenBalance{},
		&models.DispenserBalance{},
		&models.DispenserSigner{},
		&models.Collectible{},
		&models.CollectibleWhitelist{},
		&models.CollectibleHolding{},
		&models.UsedSignature{},
		&models.RedemptionConfig{},
	}
}

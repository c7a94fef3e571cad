package repository

import (
	"context"
	"errors"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// MembershipRepository defines the interface for membership, invite and follow data operations
type MembershipRepository interface {
	Get(ctx context.Context, tribeID uint, account models.Address) (*models.Membership, error)
	Status(ctx context.Context, tribeID uint, account models.Address) (models.MemberStatus, error)
	Save(ctx context.Context, m *models.Membership) error
	Delete(ctx context.Context, tribeID uint, account models.Address) error
	Members(ctx context.Context, tribeID uint, status models.MemberStatus, offset, limit int) ([]models.Membership, int64, error)
	UserTribes(ctx context.Context, account models.Address, offset, limit int) ([]models.Tribe, int64, error)
	ActiveTribeIDs(ctx context.Context, account models.Address) ([]uint, error)

	CreateInvite(ctx context.Context, invite *models.TribeInvite) error
	InviteByHash(ctx context.Context, tribeID uint, codeHash string) (*models.TribeInvite, error)
	ConsumeInvite(ctx context.Context, inviteID uint, now time.Time) (bool, error)

	Follow(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error)
	Unfollow(ctx context.Context, tribeID uint, account models.Address) (bool, error)
	FollowedTribeIDs(ctx context.Context, account models.Address) ([]uint, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Get returns nil without error when the account has no membership row.
func (r *membershipRepository) Get(ctx context.Context, tribeID uint, account models.Address) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) Status(ctx context.Context, tribeID uint, account models.Address) (models.MemberStatus, error) {
	m, err := r.Get(ctx, tribeID, account)
	if err != nil {
		return "", err
	}
	if m == nil {
		return models.MemberStatusNone, nil
	}
	return m.Status, nil
}

func (r *membershipRepository) Save(ctx context.Context, m *models.Membership) error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = 1
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *membershipRepository) Delete(ctx context.Context, tribeID uint, account models.Address) error {
	return r.db.WithContext(ctx).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Delete(&models.Membership{}).Error
}

func (r *membershipRepository) Members(ctx context.Context, tribeID uint, status models.MemberStatus, offset, limit int) ([]models.Membership, int64, error) {
	members := []models.Membership{}
	q := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("tribe_id = ? AND status = ?", tribeID, status).
		Order("created_at ASC, account ASC")
	total, err := paginate(q, offset, limit, &members)
	return members, total, err
}

func (r *membershipRepository) UserTribes(ctx context.Context, account models.Address, offset, limit int) ([]models.Tribe, int64, error) {
	tribes := []models.Tribe{}
	q := r.db.WithContext(ctx).Model(&models.Tribe{}).
		Joins("JOIN memberships ON memberships.tribe_id = tribes.id").
		Where("memberships.account = ? AND memberships.status = ?", account, models.MemberStatusActive).
		Order("tribes.id ASC")
	total, err := paginate(q, offset, limit, &tribes)
	return tribes, total, err
}

func (r *membershipRepository) ActiveTribeIDs(ctx context.Context, account models.Address) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("account = ? AND status = ?", account, models.MemberStatusActive).
		Pluck("tribe_id", &ids).Error
	return ids, err
}

func (r *membershipRepository) CreateInvite(ctx context.Context, invite *models.TribeInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *membershipRepository) InviteByHash(ctx context.Context, tribeID uint, codeHash string) (*models.TribeInvite, error) {
	var invite models.TribeInvite
	err := r.db.WithContext(ctx).
		Where("tribe_id = ? AND code_hash = ?", tribeID, codeHash).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ConsumeInvite takes one use of an invite that is unexpired with uses left.
func (r *membershipRepository) ConsumeInvite(ctx context.Context, inviteID uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.TribeInvite{}).
		Where("id = ? AND uses < max_uses AND (expires_at IS NULL OR expires_at > ?)", inviteID, now).
		UpdateColumn("uses", gorm.Expr("uses + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *membershipRepository) Follow(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.TribeFollow{
		TribeID:   tribeID,
		Account:   account,
		CreatedAt: now,
	})
}

func (r *membershipRepository) Unfollow(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Delete(&models.TribeFollow{})
	return res.RowsAffected > 0, res.Error
}

func (r *membershipRepository) FollowedTribeIDs(ctx context.Context, account models.Address) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.TribeFollow{}).
		Where("account = ?", account).
		Pluck("tribe_id", &ids).Error
	return ids, err
}

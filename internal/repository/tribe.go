package repository

import (
	"context"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// TribeRepository defines the interface for tribe data operations
type TribeRepository interface {
	Create(ctx context.Context, tribe *models.Tribe) error
	GetByID(ctx context.Context, id uint) (*models.Tribe, error)
	GetByNameKey(ctx context.Context, key string) (*models.Tribe, error)
	Update(ctx context.Context, tribe *models.Tribe) error
	List(ctx context.Context, offset, limit int) ([]models.Tribe, int64, error)
	AdjustMemberCount(ctx context.Context, id uint, delta int64) error

	AddAdmin(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error)
	IsAdmin(ctx context.Context, tribeID uint, account models.Address) (bool, error)
	Admins(ctx context.Context, tribeID uint) ([]models.Address, error)

	Requirements(ctx context.Context, tribeID uint) ([]models.TribeRequirement, error)
	ReplaceRequirements(ctx context.Context, tribeID uint, reqs []models.TribeRequirement, now time.Time) error

	AddToWhitelist(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error)
	RemoveFromWhitelist(ctx context.Context, tribeID uint, account models.Address) (bool, error)
	IsWhitelisted(ctx context.Context, tribeID uint, account models.Address) (bool, error)
}

type tribeRepository struct {
	db *gorm.DB
}

// NewTribeRepository creates a new tribe repository
func NewTribeRepository(db *gorm.DB) TribeRepository {
	return &tribeRepository{db: db}
}

func (r *tribeRepository) Create(ctx context.Context, tribe *models.Tribe) error {
	return r.db.WithContext(ctx).Create(tribe).Error
}

func (r *tribeRepository) GetByID(ctx context.Context, id uint) (*models.Tribe, error) {
	var tribe models.Tribe
	if err := r.db.WithContext(ctx).First(&tribe, id).Error; err != nil {
		return nil, err
	}
	return &tribe, nil
}

func (r *tribeRepository) GetByNameKey(ctx context.Context, key string) (*models.Tribe, error) {
	var tribe models.Tribe
	if err := r.db.WithContext(ctx).Where("name_key = ?", key).First(&tribe).Error; err != nil {
		return nil, err
	}
	return &tribe, nil
}

func (r *tribeRepository) Update(ctx context.Context, tribe *models.Tribe) error {
	return r.db.WithContext(ctx).Save(tribe).Error
}

func (r *tribeRepository) List(ctx context.Context, offset, limit int) ([]models.Tribe, int64, error) {
	tribes := []models.Tribe{}
	q := r.db.WithContext(ctx).Model(&models.Tribe{}).Order("id ASC")
	total, err := paginate(q, offset, limit, &tribes)
	return tribes, total, err
}

func (r *tribeRepository) AdjustMemberCount(ctx context.Context, id uint, delta int64) error {
	return r.db.WithContext(ctx).Model(&models.Tribe{}).
		Where("id = ?", id).
		UpdateColumn("member_count", gorm.Expr("member_count + ?", delta)).Error
}

func (r *tribeRepository) AddAdmin(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.TribeAdmin{
		TribeID:   tribeID,
		Account:   account,
		CreatedAt: now,
	})
}

// IsAdmin covers both the primary admin and co-admins.
func (r *tribeRepository) IsAdmin(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tribe{}).
		Where("id = ? AND admin = ?", tribeID, account).
		Count(&count).Error
	if err != nil || count > 0 {
		return count > 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.TribeAdmin{}).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Count(&count).Error
	return count > 0, err
}

func (r *tribeRepository) Admins(ctx context.Context, tribeID uint) ([]models.Address, error) {
	admins := []models.Address{}
	err := r.db.WithContext(ctx).Model(&models.TribeAdmin{}).
		Where("tribe_id = ?", tribeID).
		Order("created_at ASC, account ASC").
		Pluck("account", &admins).Error
	return admins, err
}

func (r *tribeRepository) Requirements(ctx context.Context, tribeID uint) ([]models.TribeRequirement, error) {
	reqs := []models.TribeRequirement{}
	err := r.db.WithContext(ctx).Where("tribe_id = ?", tribeID).Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// ReplaceRequirements drops the tribe's current predicates and stores reqs in their place.
func (r *tribeRepository) ReplaceRequirements(ctx context.Context, tribeID uint, reqs []models.TribeRequirement, now time.Time) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tribe_id = ?", tribeID).Delete(&models.TribeRequirement{}).Error; err != nil {
		return err
	}
	if len(reqs) == 0 {
		return nil
	}
	rows := make([]models.TribeRequirement, len(reqs))
	for i, req := range reqs {
		rows[i] = models.TribeRequirement{
			TribeID:   tribeID,
			Contract:  req.Contract,
			TokenID:   req.TokenID,
			MinAmount: req.MinAmount,
			CreatedAt: now,
		}
	}
	return db.Create(&rows).Error
}

func (r *tribeRepository) AddToWhitelist(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.WhitelistEntry{
		TribeID:   tribeID,
		Account:   account,
		CreatedAt: now,
	})
}

func (r *tribeRepository) RemoveFromWhitelist(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Delete(&models.WhitelistEntry{})
	return res.RowsAffected > 0, res.Error
}

func (r *tribeRepository) IsWhitelisted(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhitelistEntry{}).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Count(&count).Error
	return count > 0, err
}

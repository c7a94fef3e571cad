package repository

import (
	"context"
	"errors"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// CollectibleRepository defines the interface for collectible issuance data operations
type CollectibleRepository interface {
	Create(ctx context.Context, c *models.Collectible) error
	GetByID(ctx context.Context, id uint) (*models.Collectible, error)
	ListByTribe(ctx context.Context, tribeID uint, offset, limit int) ([]models.Collectible, int64, error)
	SetWhitelistEnabled(ctx context.Context, id uint, enabled bool, now time.Time) error
	ReserveUnit(ctx context.Context, id uint, now time.Time) (bool, error)

	AddToWhitelist(ctx context.Context, id uint, account models.Address, now time.Time) (bool, error)
	RemoveFromWhitelist(ctx context.Context, id uint, account models.Address) (bool, error)
	IsWhitelisted(ctx context.Context, id uint, account models.Address) (bool, error)

	Holding(ctx context.Context, id uint, account models.Address) (int64, error)
	Holdings(ctx context.Context, account models.Address, offset, limit int) ([]models.CollectibleHolding, int64, error)
	CreditHolding(ctx context.Context, id uint, account models.Address, amount int64, now time.Time) error
	TotalHeld(ctx context.Context, id uint) (int64, error)
}

type collectibleRepository struct {
	db *gorm.DB
}

// NewCollectibleRepository creates a new collectible repository
func NewCollectibleRepository(db *gorm.DB) CollectibleRepository {
	return &collectibleRepository{db: db}
}

func (r *collectibleRepository) Create(ctx context.Context, c *models.Collectible) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *collectibleRepository) GetByID(ctx context.Context, id uint) (*models.Collectible, error) {
	var c models.Collectible
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectibleRepository) ListByTribe(ctx context.Context, tribeID uint, offset, limit int) ([]models.Collectible, int64, error) {
	items := []models.Collectible{}
	q := r.db.WithContext(ctx).Model(&models.Collectible{}).Where("tribe_id = ?", tribeID).Order("id ASC")
	total, err := paginate(q, offset, limit, &items)
	return items, total, err
}

func (r *collectibleRepository) SetWhitelistEnabled(ctx context.Context, id uint, enabled bool, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Collectible{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"whitelist_enabled": enabled, "updated_at": now}).Error
}

// ReserveUnit claims one unit of supply. The supply check and the increment are a
// single conditional UPDATE; false means the supply is exhausted.
func (r *collectibleRepository) ReserveUnit(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Collectible{}).
		Where("id = ? AND total_claimed < max_supply", id).
		Updates(map[string]interface{}{
			"total_claimed": gorm.Expr("total_claimed + 1"),
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *collectibleRepository) AddToWhitelist(ctx context.Context, id uint, account models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.CollectibleWhitelist{CollectibleID: id, Account: account, CreatedAt: now})
}

func (r *collectibleRepository) RemoveFromWhitelist(ctx context.Context, id uint, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("collectible_id = ? AND account = ?", id, account).
		Delete(&models.CollectibleWhitelist{})
	return res.RowsAffected > 0, res.Error
}

func (r *collectibleRepository) IsWhitelisted(ctx context.Context, id uint, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CollectibleWhitelist{}).
		Where("collectible_id = ? AND account = ?", id, account).
		Count(&count).Error
	return count > 0, err
}

func holdingKeys(id uint, account models.Address) map[string]interface{} {
	return map[string]interface{}{"collectible_id": id, "account": account}
}

func (r *collectibleRepository) Holding(ctx context.Context, id uint, account models.Address) (int64, error) {
	return readBalance(r.db.WithContext(ctx), &models.CollectibleHolding{}, holdingKeys(id, account))
}

func (r *collectibleRepository) Holdings(ctx context.Context, account models.Address, offset, limit int) ([]models.CollectibleHolding, int64, error) {
	items := []models.CollectibleHolding{}
	q := r.db.WithContext(ctx).Model(&models.CollectibleHolding{}).
		Where("account = ? AND balance > 0", account).
		Order("collectible_id ASC")
	total, err := paginate(q, offset, limit, &items)
	return items, total, err
}

func (r *collectibleRepository) CreditHolding(ctx context.Context, id uint, account models.Address, amount int64, now time.Time) error {
	return creditBalance(r.db.WithContext(ctx), &models.CollectibleHolding{}, holdingKeys(id, account), amount, now, func() interface{} {
		return &models.CollectibleHolding{CollectibleID: id, Account: account, Balance: amount, UpdatedAt: now}
	})
}

// TotalHeld sums every account's holding of a collectible.
func (r *collectibleRepository) TotalHeld(ctx context.Context, id uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.CollectibleHolding{}).
		Where("collectible_id = ?", id).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	return total, err
}

// SignatureRepository defines the interface for consumed-signature and verifier data operations
type SignatureRepository interface {
	Consume(ctx context.Context, used *models.UsedSignature) (bool, error)
	IsUsed(ctx context.Context, hash string) (bool, error)
	Verifier(ctx context.Context) (models.Address, error)
	SetVerifier(ctx context.Context, verifier models.Address, now time.Time) error
}

type signatureRepository struct {
	db *gorm.DB
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *gorm.DB) SignatureRepository {
	return &signatureRepository{db: db}
}

// Consume marks a signature hash as used. It reports false when the hash was already
// consumed; the primary key makes the check and the mark one statement.
func (r *signatureRepository) Consume(ctx context.Context, used *models.UsedSignature) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), used)
}

func (r *signatureRepository) IsUsed(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UsedSignature{}).Where("hash = ?", hash).Count(&count).Error
	return count > 0, err
}

// Verifier returns the registered redemption verifier, or the zero address when unset.
func (r *signatureRepository) Verifier(ctx context.Context) (models.Address, error) {
	var cfg models.RedemptionConfig
	err := r.db.WithContext(ctx).First(&cfg, models.RedemptionConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAddress, nil
	}
	if err != nil {
		return models.ZeroAddress, err
	}
	return cfg.Verifier, nil
}

func (r *signatureRepository) SetVerifier(ctx context.Context, verifier models.Address, now time.Time) error {
	return r.db.WithContext(ctx).Save(&models.RedemptionConfig{
		ID:            models.RedemptionConfigID,
		Verifier:      verifier,
		UpdatedAt:     now,
		SchemaVersion: 1,
	}).Error
}

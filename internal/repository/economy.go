package repository

import (
	"context"
	"errors"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// PointRepository defines the interface for point registry and balance data operations
type PointRepository interface {
	CreateType(ctx context.Context, pt *models.PointType) error
	GetType(ctx context.Context, tribeID, pointTypeID uint) (*models.PointType, error)
	TypeByName(ctx context.Context, tribeID uint, name string) (*models.PointType, error)
	Types(ctx context.Context, tribeID uint, offset, limit int) ([]models.PointType, int64, error)

	SaveAction(ctx context.Context, action *models.PointAction) error
	GetAction(ctx context.Context, tribeID uint, actionID string) (*models.PointAction, error)

	AddIssuer(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error)
	RemoveIssuer(ctx context.Context, tribeID uint, account models.Address) (bool, error)
	IsIssuer(ctx context.Context, tribeID uint, account models.Address) (bool, error)

	Balance(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint) (int64, error)
	Balances(ctx context.Context, tribeID uint, account models.Address) ([]models.PointBalance, error)
	Credit(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint, amount int64, now time.Time) error
	Debit(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint, amount int64, now time.Time) error
}

type pointRepository struct {
	db *gorm.DB
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{db: db}
}

func (r *pointRepository) CreateType(ctx context.Context, pt *models.PointType) error {
	return r.db.WithContext(ctx).Create(pt).Error
}

func (r *pointRepository) GetType(ctx context.Context, tribeID, pointTypeID uint) (*models.PointType, error) {
	var pt models.PointType
	err := r.db.WithContext(ctx).Where("id = ? AND tribe_id = ?", pointTypeID, tribeID).First(&pt).Error
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// TypeByName returns nil without error when the tribe has no type of that name.
func (r *pointRepository) TypeByName(ctx context.Context, tribeID uint, name string) (*models.PointType, error) {
	var pt models.PointType
	err := r.db.WithContext(ctx).Where("tribe_id = ? AND name = ?", tribeID, name).First(&pt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *pointRepository) Types(ctx context.Context, tribeID uint, offset, limit int) ([]models.PointType, int64, error) {
	types := []models.PointType{}
	q := r.db.WithContext(ctx).Model(&models.PointType{}).Where("tribe_id = ?", tribeID).Order("id ASC")
	total, err := paginate(q, offset, limit, &types)
	return types, total, err
}

func (r *pointRepository) SaveAction(ctx context.Context, action *models.PointAction) error {
	if action.SchemaVersion == 0 {
		action.SchemaVersion = 1
	}
	return r.db.WithContext(ctx).Save(action).Error
}

func (r *pointRepository) GetAction(ctx context.Context, tribeID uint, actionID string) (*models.PointAction, error) {
	var action models.PointAction
	err := r.db.WithContext(ctx).Where("tribe_id = ? AND action_id = ?", tribeID, actionID).First(&action).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *pointRepository) AddIssuer(ctx context.Context, tribeID uint, account models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.PointIssuer{TribeID: tribeID, Account: account, CreatedAt: now})
}

func (r *pointRepository) RemoveIssuer(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).Where("tribe_id = ? AND account = ?", tribeID, account).Delete(&models.PointIssuer{})
	return res.RowsAffected > 0, res.Error
}

func (r *pointRepository) IsIssuer(ctx context.Context, tribeID uint, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PointIssuer{}).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Count(&count).Error
	return count > 0, err
}

func pointKeys(tribeID uint, account models.Address, pointTypeID uint) map[string]interface{} {
	return map[string]interface{}{"tribe_id": tribeID, "account": account, "point_type_id": pointTypeID}
}

func (r *pointRepository) Balance(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint) (int64, error) {
	return readBalance(r.db.WithContext(ctx), &models.PointBalance{}, pointKeys(tribeID, account, pointTypeID))
}

func (r *pointRepository) Balances(ctx context.Context, tribeID uint, account models.Address) ([]models.PointBalance, error) {
	balances := []models.PointBalance{}
	err := r.db.WithContext(ctx).
		Where("tribe_id = ? AND account = ?", tribeID, account).
		Order("point_type_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *pointRepository) Credit(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint, amount int64, now time.Time) error {
	return creditBalance(r.db.WithContext(ctx), &models.PointBalance{}, pointKeys(tribeID, account, pointTypeID), amount, now, func() interface{} {
		return &models.PointBalance{TribeID: tribeID, Account: account, PointTypeID: pointTypeID, Balance: amount, UpdatedAt: now}
	})
}

func (r *pointRepository) Debit(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint, amount int64, now time.Time) error {
	return debitBalance(r.db.WithContext(ctx), &models.PointBalance{}, pointKeys(tribeID, account, pointTypeID), amount, now, "points")
}

// TokenRepository defines the interface for tribe token data operations
type TokenRepository interface {
	Get(ctx context.Context, tribeID uint) (*models.TribeToken, error)
	Create(ctx context.Context, token *models.TribeToken) (bool, error)
	SetExchangeRate(ctx context.Context, tribeID uint, rate int64, now time.Time) error
	Mint(ctx context.Context, tribeID uint, account models.Address, amount int64, now time.Time) error
	Balance(ctx context.Context, tribeID uint, account models.Address) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new tribe token repository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Get returns nil without error when the tribe has no token.
func (r *tokenRepository) Get(ctx context.Context, tribeID uint) (*models.TribeToken, error) {
	var token models.TribeToken
	err := r.db.WithContext(ctx).Where("tribe_id = ?", tribeID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Create inserts the token only if the tribe has none; an existing token is never replaced.
func (r *tokenRepository) Create(ctx context.Context, token *models.TribeToken) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), token)
}

func (r *tokenRepository) SetExchangeRate(ctx context.Context, tribeID uint, rate int64, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.TribeToken{}).
		Where("tribe_id = ?", tribeID).
		Updates(map[string]interface{}{"exchange_rate": rate, "updated_at": now}).Error
}

func (r *tokenRepository) Mint(ctx context.Context, tribeID uint, account models.Address, amount int64, now time.Time) error {
	db := r.db.WithContext(ctx)
	keys := map[string]interface{}{"tribe_id": tribeID, "account": account}
	err := creditBalance(db, &models.TribeTokenBalance{}, keys, amount, now, func() interface{} {
		return &models.TribeTokenBalance{TribeID: tribeID, Account: account, Balance: amount, UpdatedAt: now}
	})
	if err != nil {
		return err
	}
	return db.Model(&models.TribeToken{}).
		Where("tribe_id = ?", tribeID).
		UpdateColumn("total_supply", gorm.Expr("total_supply + ?", amount)).Error
}

func (r *tokenRepository) Balance(ctx context.Context, tribeID uint, account models.Address) (int64, error) {
	return readBalance(r.db.WithContext(ctx), &models.TribeTokenBalance{}, map[string]interface{}{"tribe_id": tribeID, "account": account})
}

// DispenserRepository defines the interface for dispenser custody data operations
type DispenserRepository interface {
	Balance(ctx context.Context, account models.Address) (int64, error)
	Credit(ctx context.Context, account models.Address, amount int64, now time.Time) error
	Debit(ctx context.Context, account models.Address, amount int64, now time.Time) error
	AddSigner(ctx context.Context, org, signer models.Address, now time.Time) (bool, error)
	RemoveSigner(ctx context.Context, org, signer models.Address) (bool, error)
	IsSigner(ctx context.Context, org, signer models.Address) (bool, error)
	Signers(ctx context.Context, org models.Address) ([]models.Address, error)
}

type dispenserRepository struct {
	db *gorm.DB
}

// NewDispenserRepository creates a new dispenser repository
func NewDispenserRepository(db *gorm.DB) DispenserRepository {
	return &dispenserRepository{db: db}
}

func (r *dispenserRepository) Balance(ctx context.Context, account models.Address) (int64, error) {
	return readBalance(r.db.WithContext(ctx), &models.DispenserBalance{}, map[string]interface{}{"account": account})
}

func (r *dispenserRepository) Credit(ctx context.Context, account models.Address, amount int64, now time.Time) error {
	return creditBalance(r.db.WithContext(ctx), &models.DispenserBalance{}, map[string]interface{}{"account": account}, amount, now, func() interface{} {
		return &models.DispenserBalance{Account: account, Balance: amount, UpdatedAt: now}
	})
}

func (r *dispenserRepository) Debit(ctx context.Context, account models.Address, amount int64, now time.Time) error {
	return debitBalance(r.db.WithContext(ctx), &models.DispenserBalance{}, map[string]interface{}{"account": account}, amount, now, "dispenser")
}

func (r *dispenserRepository) AddSigner(ctx context.Context, org, signer models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.DispenserSigner{Organization: org, Signer: signer, CreatedAt: now})
}

func (r *dispenserRepository) RemoveSigner(ctx context.Context, org, signer models.Address) (bool, error) {
	res := r.db.WithContext(ctx).Where("organization = ? AND signer = ?", org, signer).Delete(&models.DispenserSigner{})
	return res.RowsAffected > 0, res.Error
}

func (r *dispenserRepository) IsSigner(ctx context.Context, org, signer models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DispenserSigner{}).
		Where("organization = ? AND signer = ?", org, signer).
		Count(&count).Error
	return count > 0, err
}

func (r *dispenserRepository) Signers(ctx context.Context, org models.Address) ([]models.Address, error) {
	signers := []models.Address{}
	err := r.db.WithContext(ctx).Model(&models.DispenserSigner{}).
		Where("organization = ?", org).
		Order("signer ASC").
		Pluck("signer", &signers).Error
	return signers, err
}

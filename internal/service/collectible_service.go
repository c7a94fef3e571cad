package service

import (
	"context"
	"fmt"
	"strings"

	"tribehub/internal/cache"
	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/validation"

	"gorm.io/gorm"
)

// CollectibleService issues capped-supply collectibles and lets accounts claim them.
type CollectibleService struct {
	exec *ledger.Executor
}

func NewCollectibleService(exec *ledger.Executor) *CollectibleService {
	return &CollectibleService{exec: exec}
}

type CreateCollectibleInput struct {
	TribeID        uint
	Name           string
	Symbol         string
	Metadata       string
	MaxSupply      int64
	Price          int64
	PointsRequired int64
	PointTypeID    uint
}

type CollectibleWhitelistInput struct {
	Enabled *bool
	Add     []models.Address
	Remove  []models.Address
}

func (in CreateCollectibleInput) validate() error {
	if err := validation.ValidateName(in.Name); err != nil {
		return models.NewValidationError(err.Error())
	}
	if in.Symbol != "" {
		if err := validation.ValidateSymbol(in.Symbol); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if err := validation.ValidateMetadata(in.Metadata); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := requirePositive("max supply", in.MaxSupply); err != nil {
		return err
	}
	if in.Price < 0 || in.PointsRequired < 0 {
		return models.NewValidationError("price and points required must not be negative")
	}
	if in.PointsRequired > 0 && in.PointTypeID == 0 {
		return models.NewValidationError("a point type is required when points are required")
	}
	return nil
}

// CreateCollectible registers a collectible in a tribe the caller administers.
func (s *CollectibleService) CreateCollectible(ctx context.Context, caller models.Address, in CreateCollectibleInput) (*models.Collectible, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c *models.Collectible
	_, err := s.exec.Execute(ctx, ledger.Call{Op: "createCollectible", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, in.TribeID, caller); err != nil {
			return err
		}
		if in.PointTypeID != 0 {
			if _, err := repository.NewPointRepository(tx.DB).GetType(ctx, in.TribeID, in.PointTypeID); err != nil {
				return notFound(err, "point type", in.PointTypeID)
			}
		}
		c = &models.Collectible{
			TribeID:        in.TribeID,
			Name:           strings.TrimSpace(in.Name),
			Symbol:         in.Symbol,
			MetadataURI:    in.Metadata,
			MaxSupply:      in.MaxSupply,
			Price:          in.Price,
			PointsRequired: in.PointsRequired,
			PointTypeID:    in.PointTypeID,
			Active:         true,
			CreatedAt:      tx.Now,
			UpdatedAt:      tx.Now,
		}
		if err := repository.NewCollectibleRepository(tx.DB).Create(ctx, c); err != nil {
			return err
		}
		return tx.Emit("CollectibleCreated", "collectible", c.ID, ledger.Fields{
			"tribe_id":        in.TribeID,
			"name":            c.Name,
			"max_supply":      c.MaxSupply,
			"price":           c.Price,
			"points_required": c.PointsRequired,
			"point_type_id":   c.PointTypeID,
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadCollectible returns a collectible of tribeID or NotFound.
func loadCollectible(ctx context.Context, db *gorm.DB, tribeID, id uint) (*models.Collectible, error) {
	c, err := repository.NewCollectibleRepository(db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "collectible", id)
	}
	if tribeID != 0 && c.TribeID != tribeID {
		return nil, models.NewNotFoundError("collectible", id)
	}
	return c, nil
}

// SetCollectibleWhitelist toggles whitelist gating and edits the whitelist. Admin only.
func (s *CollectibleService) SetCollectibleWhitelist(ctx context.Context, caller models.Address, tribeID, id uint, in CollectibleWhitelistInput) (*ledger.Receipt, error) {
	for _, a := range append(append([]models.Address{}, in.Add...), in.Remove...) {
		if err := requireAccount("whitelist account", a); err != nil {
			return nil, err
		}
	}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "setCollectibleWhitelist", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		c, err := loadCollectible(ctx, tx.DB, tribeID, id)
		if err != nil {
			return err
		}
		collectibles := repository.NewCollectibleRepository(tx.DB)
		if in.Enabled != nil && *in.Enabled != c.WhitelistEnabled {
			if err := collectibles.SetWhitelistEnabled(ctx, id, *in.Enabled, tx.Now); err != nil {
				return err
			}
			if err := tx.Emit("CollectibleWhitelistToggled", "collectible", id, ledger.Fields{"enabled": *in.Enabled}); err != nil {
				return err
			}
		}
		for _, a := range dedupeAccounts(in.Add) {
			added, err := collectibles.AddToWhitelist(ctx, id, a, tx.Now)
			if err != nil {
				return err
			}
			if added {
				if err := tx.Emit("CollectibleWhitelistUpdated", "collectible", id, ledger.Fields{"account": a, "whitelisted": true}); err != nil {
					return err
				}
			}
		}
		for _, a := range dedupeAccounts(in.Remove) {
			removed, err := collectibles.RemoveFromWhitelist(ctx, id, a)
			if err != nil {
				return err
			}
			if removed {
				if err := tx.Emit("CollectibleWhitelistUpdated", "collectible", id, ledger.Fields{"account": a, "whitelisted": false}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		cache.InvalidateCollectible(ctx, id)
	}
	return receipt, err
}

// mintUnit takes one unit of supply and credits it to account.
func mintUnit(ctx context.Context, tx *ledger.Tx, c *models.Collectible, account models.Address) error {
	collectibles := repository.NewCollectibleRepository(tx.DB)
	ok, err := collectibles.ReserveUnit(ctx, c.ID, tx.Now)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewSupplyExhaustedError(c.ID)
	}
	return collectibles.CreditHolding(ctx, c.ID, account, 1, tx.Now)
}

// ClaimCollectible mints one unit to the caller. The price goes to the tribe admin and any
// excess payment is refunded; required points are burned.
func (s *CollectibleService) ClaimCollectible(ctx context.Context, caller models.Address, tribeID, id uint, payment int64) (*ledger.Receipt, error) {
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "claimCollectible", Caller: caller, Value: payment, Payable: true}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, tribeID)
		if err != nil {
			return err
		}
		c, err := loadCollectible(ctx, tx.DB, tribeID, id)
		if err != nil {
			return err
		}
		if !c.Active {
			return models.NewValidationError(fmt.Sprintf("collectible %d is not active", id))
		}
		if c.WhitelistEnabled {
			ok, err := repository.NewCollectibleRepository(tx.DB).IsWhitelisted(ctx, id, caller)
			if err != nil {
				return err
			}
			if !ok {
				return models.NewUnauthorizedError("caller is not whitelisted for this collectible")
			}
		}
		if err := tx.Pay(tribe.Admin, c.Price, "collectible_price"); err != nil {
			return err
		}
		if c.PointsRequired > 0 {
			if err := repository.NewPointRepository(tx.DB).Debit(ctx, tribeID, caller, c.PointTypeID, c.PointsRequired, tx.Now); err != nil {
				return err
			}
		}
		if err := mintUnit(ctx, tx, c, caller); err != nil {
			return err
		}
		return tx.Emit("CollectibleClaimed", "collectible", id, ledger.Fields{
			"tribe_id":     tribeID,
			"account":      caller,
			"price":        c.Price,
			"points_spent": c.PointsRequired,
		})
	})
	if err == nil {
		cache.InvalidateCollectible(ctx, id)
	}
	return receipt, err
}

func (s *CollectibleService) GetCollectible(ctx context.Context, id uint) (*models.Collectible, error) {
	var c models.Collectible
	err := cache.Aside(ctx, cache.CollectibleKey(id), &c, cache.CollectibleTTL, func() error {
		found, err := loadCollectible(ctx, s.exec.DB(), 0, id)
		if err != nil {
			return err
		}
		c = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CollectibleService) Collectibles(ctx context.Context, tribeID uint, offset, limit int) (*Page[models.Collectible], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	if _, err := loadTribe(ctx, s.exec.DB(), tribeID); err != nil {
		return nil, err
	}
	items, total, err := repository.NewCollectibleRepository(s.exec.DB()).ListByTribe(ctx, tribeID, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

func (s *CollectibleService) HoldingOf(ctx context.Context, account models.Address, id uint) (int64, error) {
	return repository.NewCollectibleRepository(s.exec.DB()).Holding(ctx, id, account)
}

func (s *CollectibleService) HoldingsOf(ctx context.Context, account models.Address, offset, limit int) (*Page[models.CollectibleHolding], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewCollectibleRepository(s.exec.DB()).Holdings(ctx, account, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

func (s *CollectibleService) IsWhitelisted(ctx context.Context, id uint, account models.Address) (bool, error) {
	return repository.NewCollectibleRepository(s.exec.DB()).IsWhitelisted(ctx, id, account)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/validation"

	"gorm.io/gorm"
)

// EconomyService runs the per-tribe point registry and the tribe tokens.
type EconomyService struct {
	exec *ledger.Executor
}

func NewEconomyService(exec *ledger.Executor) *EconomyService {
	return &EconomyService{exec: exec}
}

// adminOf loads an active tribe the caller administers.
func adminOf(ctx context.Context, db *gorm.DB, tribeID uint, caller models.Address) (*models.Tribe, error) {
	tribe, err := loadActiveTribe(ctx, db, tribeID)
	if err != nil {
		return nil, err
	}
	if err := requireTribeAdmin(ctx, db, tribe, caller); err != nil {
		return nil, err
	}
	return tribe, nil
}

// canIssue reports whether caller may move points in the tribe.
func canIssue(ctx context.Context, db *gorm.DB, tribe *models.Tribe, caller models.Address) (bool, error) {
	admin, err := isTribeAdmin(ctx, db, tribe, caller)
	if err != nil || admin {
		return admin, err
	}
	return repository.NewPointRepository(db).IsIssuer(ctx, tribe.ID, caller)
}

func (s *EconomyService) RegisterPointType(ctx context.Context, caller models.Address, tribeID uint, name, description string) (*models.PointType, error) {
	if err := validation.ValidateLabel(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMetadata(description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	name = strings.TrimSpace(name)
	var pt *models.PointType
	_, err := s.exec.Execute(ctx, ledger.Call{Op: "registerPointType", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		points := repository.NewPointRepository(tx.DB)
		existing, err := points.TypeByName(ctx, tribeID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewConflictError(fmt.Sprintf("point type %q already exists", name))
		}
		pt = &models.PointType{TribeID: tribeID, Name: name, Description: description, CreatedAt: tx.Now}
		if err := points.CreateType(ctx, pt); err != nil {
			return err
		}
		return tx.Emit("PointTypeRegistered", "tribe", tribeID, ledger.Fields{"point_type_id": pt.ID, "name": name})
	})
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// RegisterAction maps actionID to a point type, replacing any earlier mapping.
func (s *EconomyService) RegisterAction(ctx context.Context, caller models.Address, tribeID uint, actionID string, pointTypeID uint) (*ledger.Receipt, error) {
	if err := validation.ValidateActionID(actionID); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "registerAction", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		points := repository.NewPointRepository(tx.DB)
		if _, err := points.GetType(ctx, tribeID, pointTypeID); err != nil {
			return notFound(err, "point type", pointTypeID)
		}
		current, err := points.GetAction(ctx, tribeID, actionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if current != nil && current.PointTypeID == pointTypeID {
			return nil
		}
		action := &models.PointAction{TribeID: tribeID, ActionID: actionID, PointTypeID: pointTypeID, CreatedAt: tx.Now}
		if err := points.SaveAction(ctx, action); err != nil {
			return err
		}
		return tx.Emit("PointActionRegistered", "tribe", tribeID, ledger.Fields{"action_id": actionID, "point_type_id": pointTypeID})
	})
}

func (s *EconomyService) GrantIssuer(ctx context.Context, caller models.Address, tribeID uint, account models.Address) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "grantIssuer", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		added, err := repository.NewPointRepository(tx.DB).AddIssuer(ctx, tribeID, account, tx.Now)
		if err != nil || !added {
			return err
		}
		return tx.Emit("IssuerGranted", "tribe", tribeID, ledger.Fields{"account": account})
	})
}

func (s *EconomyService) RevokeIssuer(ctx context.Context, caller models.Address, tribeID uint, account models.Address) (*ledger.Receipt, error) {
	return s.exec.Execute(ctx, ledger.Call{Op: "revokeIssuer", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		removed, err := repository.NewPointRepository(tx.DB).RemoveIssuer(ctx, tribeID, account)
		if err != nil || !removed {
			return err
		}
		return tx.Emit("IssuerRevoked", "tribe", tribeID, ledger.Fields{"account": account})
	})
}

// AwardPoints credits account with amount points of the type actionID maps to.
func (s *EconomyService) AwardPoints(ctx context.Context, caller models.Address, tribeID uint, account models.Address, amount int64, actionID string) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "awardPoints", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, tribeID)
		if err != nil {
			return err
		}
		ok, err := canIssue(ctx, tx.DB, tribe, caller)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewUnauthorizedError("caller may not award points in this tribe")
		}
		points := repository.NewPointRepository(tx.DB)
		action, err := points.GetAction(ctx, tribeID, actionID)
		if err != nil {
			return notFound(err, "action", actionID)
		}
		if err := points.Credit(ctx, tribeID, account, action.PointTypeID, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("PointsAwarded", "tribe", tribeID, ledger.Fields{
			"account":       account,
			"point_type_id": action.PointTypeID,
			"action_id":     actionID,
			"amount":        amount,
		})
	})
}

// SpendPoints debits points from account. The account itself, a tribe admin or an issuer may spend.
func (s *EconomyService) SpendPoints(ctx context.Context, caller models.Address, tribeID uint, account models.Address, pointTypeID uint, amount int64, reason string) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	if err := validation.ValidateMetadata(reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "spendPoints", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, tribeID)
		if err != nil {
			return err
		}
		if caller != account {
			ok, err := canIssue(ctx, tx.DB, tribe, caller)
			if err != nil {
				return err
			}
			if !ok {
				return models.NewUnauthorizedError("caller may not spend points for this account")
			}
		}
		points := repository.NewPointRepository(tx.DB)
		if _, err := points.GetType(ctx, tribeID, pointTypeID); err != nil {
			return notFound(err, "point type", pointTypeID)
		}
		if err := points.Debit(ctx, tribeID, account, pointTypeID, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("PointsSpent", "tribe", tribeID, ledger.Fields{
			"account":       account,
			"point_type_id": pointTypeID,
			"amount":        amount,
			"reason":        reason,
		})
	})
}

func (s *EconomyService) PointBalance(ctx context.Context, tribeID uint, account models.Address, pointTypeID uint) (int64, error) {
	return repository.NewPointRepository(s.exec.DB()).Balance(ctx, tribeID, account, pointTypeID)
}

func (s *EconomyService) PointBalances(ctx context.Context, tribeID uint, account models.Address) ([]models.PointBalance, error) {
	return repository.NewPointRepository(s.exec.DB()).Balances(ctx, tribeID, account)
}

func (s *EconomyService) PointTypes(ctx context.Context, tribeID uint, offset, limit int) (*Page[models.PointType], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewPointRepository(s.exec.DB()).Types(ctx, tribeID, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

// CreateTribeToken issues the tribe's token. A tribe has at most one and it is never replaced.
func (s *EconomyService) CreateTribeToken(ctx context.Context, caller models.Address, tribeID uint, name, symbol string) (*models.TribeToken, error) {
	if err := validation.ValidateLabel(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateSymbol(symbol); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	var token *models.TribeToken
	_, err := s.exec.Execute(ctx, ledger.Call{Op: "createTribeToken", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		token = &models.TribeToken{
			TribeID:   tribeID,
			Name:      strings.TrimSpace(name),
			Symbol:    symbol,
			CreatedAt: tx.Now,
			UpdatedAt: tx.Now,
		}
		created, err := repository.NewTokenRepository(tx.DB).Create(ctx, token)
		if err != nil {
			return err
		}
		if !created {
			return models.NewConflictError(fmt.Sprintf("tribe %d already has a token", tribeID))
		}
		return tx.Emit("TribeTokenCreated", "tribe", tribeID, ledger.Fields{"name": token.Name, "symbol": symbol})
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *EconomyService) SetExchangeRate(ctx context.Context, caller models.Address, tribeID uint, rate int64) (*ledger.Receipt, error) {
	if err := requirePositive("exchange rate", rate); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "setExchangeRate", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := adminOf(ctx, tx.DB, tribeID, caller); err != nil {
			return err
		}
		tokens := repository.NewTokenRepository(tx.DB)
		token, err := tokens.Get(ctx, tribeID)
		if err != nil {
			return err
		}
		if token == nil {
			return models.NewNotFoundError("tribe token", tribeID)
		}
		if token.ExchangeRate == rate {
			return nil
		}
		if err := tokens.SetExchangeRate(ctx, tribeID, rate, tx.Now); err != nil {
			return err
		}
		return tx.Emit("ExchangeRateSet", "tribe", tribeID, ledger.Fields{"previous": token.ExchangeRate, "rate": rate})
	})
}

// BuyTribeTokens spends payment on tribe tokens at the current rate. The payment goes to the tribe admin.
func (s *EconomyService) BuyTribeTokens(ctx context.Context, caller models.Address, tribeID uint, payment int64) (*ledger.Receipt, error) {
	if err := requirePositive("payment", payment); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "buyTribeTokens", Caller: caller, Value: payment, Payable: true}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, tribeID)
		if err != nil {
			return err
		}
		tokens := repository.NewTokenRepository(tx.DB)
		token, err := tokens.Get(ctx, tribeID)
		if err != nil {
			return err
		}
		if token == nil {
			return models.NewNotFoundError("tribe token", tribeID)
		}
		if token.ExchangeRate <= 0 {
			return models.NewValidationError("tribe token has no exchange rate")
		}
		if payment > math.MaxInt64/token.ExchangeRate {
			return models.NewValidationError("purchase amount overflows")
		}
		amount := payment * token.ExchangeRate
		if err := tx.Pay(tribe.Admin, payment, "token_purchase"); err != nil {
			return err
		}
		if err := tokens.Mint(ctx, tribeID, caller, amount, tx.Now); err != nil {
			return err
		}
		return tx.Emit("TribeTokensPurchased", "tribe", tribeID, ledger.Fields{
			"buyer":  caller,
			"paid":   payment,
			"amount": amount,
			"rate":   token.ExchangeRate,
			"symbol": token.Symbol,
		})
	})
}

func (s *EconomyService) TribeToken(ctx context.Context, tribeID uint) (*models.TribeToken, error) {
	token, err := repository.NewTokenRepository(s.exec.DB()).Get(ctx, tribeID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, models.NewNotFoundError("tribe token", tribeID)
	}
	return token, nil
}

func (s *EconomyService) TokenBalance(ctx context.Context, tribeID uint, account models.Address) (int64, error) {
	return repository.NewTokenRepository(s.exec.DB()).Balance(ctx, tribeID, account)
}

// Package service implements the tribe platform's state machines on top of the ledger executor.
// Every write runs inside one ledger operation; reads are projections over committed state.
package service

import (
	"context"
	"errors"
	"fmt"

	"tribehub/internal/models"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// MaxPageLimit caps every listing window.
const MaxPageLimit = 100

// Page is one window of a listing plus the total number of matching items.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func newPage[T any](items []T, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total}
}

// checkWindow validates pagination arguments and clamps the limit.
func checkWindow(offset, limit int) (int, error) {
	if offset < 0 {
		return 0, models.NewValidationError("offset must not be negative")
	}
	if limit < 0 {
		return 0, models.NewValidationError("limit must not be negative")
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return limit, nil
}

// loadTribe returns the tribe or UnknownTribe when it does not exist.
func loadTribe(ctx context.Context, db *gorm.DB, id uint) (*models.Tribe, error) {
	tribe, err := repository.NewTribeRepository(db).GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewUnknownTribeError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load tribe %d: %w", id, err)
	}
	return tribe, nil
}

// loadActiveTribe is loadTribe that also rejects deactivated tribes.
func loadActiveTribe(ctx context.Context, db *gorm.DB, id uint) (*models.Tribe, error) {
	tribe, err := loadTribe(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !tribe.Active {
		return nil, models.NewUnknownTribeError(id)
	}
	return tribe, nil
}

func isTribeAdmin(ctx context.Context, db *gorm.DB, tribe *models.Tribe, account models.Address) (bool, error) {
	if tribe.Admin == account {
		return true, nil
	}
	return repository.NewTribeRepository(db).IsAdmin(ctx, tribe.ID, account)
}

// requireTribeAdmin fails with NotAdmin unless account administers tribe.
func requireTribeAdmin(ctx context.Context, db *gorm.DB, tribe *models.Tribe, account models.Address) error {
	ok, err := isTribeAdmin(ctx, db, tribe, account)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotAdminError(tribe.ID)
	}
	return nil
}

func hasRole(ctx context.Context, db *gorm.DB, role models.Role, account models.Address) (bool, error) {
	return repository.NewRoleRepository(db).HasRole(ctx, role, account)
}

func isSuperAdmin(ctx context.Context, db *gorm.DB, account models.Address) (bool, error) {
	return hasRole(ctx, db, models.RoleDefaultAdmin, account)
}

// requireSuperAdmin fails with Unauthorized unless account holds DEFAULT_ADMIN.
func requireSuperAdmin(ctx context.Context, db *gorm.DB, account models.Address) error {
	ok, err := isSuperAdmin(ctx, db, account)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewUnauthorizedError("caller is not a super-admin")
	}
	return nil
}

func requirePositive(what string, amount int64) error {
	if amount <= 0 {
		return models.NewValidationError(fmt.Sprintf("%s must be positive", what))
	}
	return nil
}

func requireAccount(what string, account models.Address) error {
	if account.IsZero() {
		return models.NewValidationError(fmt.Sprintf("%s is required", what))
	}
	if parsed, err := models.ParseAddress(account.String()); err != nil || parsed != account {
		return models.NewValidationError(fmt.Sprintf("%s is not a canonical address", what))
	}
	return nil
}

// notFound maps gorm's missing-row error to a NotFound AppError.
func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

// dedupeAccounts drops zero and repeated addresses while keeping order.
func dedupeAccounts(accounts []models.Address, skip ...models.Address) []models.Address {
	seen := make(map[models.Address]struct{}, len(accounts)+len(skip))
	for _, s := range skip {
		seen[s] = struct{}{}
	}
	out := make([]models.Address, 0, len(accounts))
	for _, a := range accounts {
		if a.IsZero() {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

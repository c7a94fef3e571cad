package repository

import (
	"context"
	"errors"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// RoleRepository defines the interface for role registry data operations
type RoleRepository interface {
	HasRole(ctx context.Context, role models.Role, account models.Address) (bool, error)
	Roles(ctx context.Context, account models.Address) ([]models.Role, error)
	Members(ctx context.Context, role models.Role, offset, limit int) ([]models.RoleAssignment, int64, error)
	Grant(ctx context.Context, role models.Role, account, by models.Address, now time.Time) (bool, error)
	Revoke(ctx context.Context, role models.Role, account models.Address) (bool, error)
	AdminRole(ctx context.Context, role models.Role) (models.Role, error)
	SetAdminRole(ctx context.Context, role, adminRole models.Role, now time.Time) (bool, error)
	IsAssigner(ctx context.Context, account models.Address) (bool, error)
	AddAssigner(ctx context.Context, account, by models.Address, now time.Time) (bool, error)
	RemoveAssigner(ctx context.Context, account models.Address) (bool, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) HasRole(ctx context.Context, role models.Role, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoleAssignment{}).
		Where("role = ? AND account = ?", role, account).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) Roles(ctx context.Context, account models.Address) ([]models.Role, error) {
	roles := []models.Role{}
	err := r.db.WithContext(ctx).Model(&models.RoleAssignment{}).
		Where("account = ?", account).
		Order("role").
		Pluck("role", &roles).Error
	return roles, err
}

func (r *roleRepository) Members(ctx context.Context, role models.Role, offset, limit int) ([]models.RoleAssignment, int64, error) {
	members := []models.RoleAssignment{}
	q := r.db.WithContext(ctx).Model(&models.RoleAssignment{}).
		Where("role = ?", role).
		Order("created_at ASC, account ASC")
	total, err := paginate(q, offset, limit, &members)
	return members, total, err
}

func (r *roleRepository) Grant(ctx context.Context, role models.Role, account, by models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.RoleAssignment{
		Role:      role,
		Account:   account,
		GrantedBy: by,
		CreatedAt: now,
	})
}

func (r *roleRepository) Revoke(ctx context.Context, role models.Role, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("role = ? AND account = ?", role, account).
		Delete(&models.RoleAssignment{})
	return res.RowsAffected > 0, res.Error
}

// AdminRole returns the role administering role, or the empty role when none is delegated.
func (r *roleRepository) AdminRole(ctx context.Context, role models.Role) (models.Role, error) {
	var ra models.RoleAdminGrant
	err := r.db.WithContext(ctx).Where("role = ?", role).First(&ra).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ra.AdminRole, nil
}

func (r *roleRepository) SetAdminRole(ctx context.Context, role, adminRole models.Role, now time.Time) (bool, error) {
	current, err := r.AdminRole(ctx, role)
	if err != nil {
		return false, err
	}
	if current == adminRole {
		return false, nil
	}
	err = r.db.WithContext(ctx).Save(&models.RoleAdminGrant{Role: role, AdminRole: adminRole, UpdatedAt: now, SchemaVersion: 1}).Error
	return err == nil, err
}

func (r *roleRepository) IsAssigner(ctx context.Context, account models.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AuthorizedAssigner{}).
		Where("account = ?", account).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) AddAssigner(ctx context.Context, account, by models.Address, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.AuthorizedAssigner{
		Account:      account,
		AuthorizedBy: by,
		CreatedAt:    now,
	})
}

func (r *roleRepository) RemoveAssigner(ctx context.Context, account models.Address) (bool, error) {
	res := r.db.WithContext(ctx).Where("account = ?", account).Delete(&models.AuthorizedAssigner{})
	return res.RowsAffected > 0, res.Error
}

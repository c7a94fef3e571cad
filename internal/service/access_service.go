package service

import (
	"context"
	"fmt"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// AccessService is the role registry. DEFAULT_ADMIN administers every role; a role may
// also be delegated to holders of another role, and authorized assigners may hand out FAN.
type AccessService struct {
	exec *ledger.Executor
}

func NewAccessService(exec *ledger.Executor) *AccessService {
	return &AccessService{exec: exec}
}

func validRole(role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	return nil
}

// canAdminister reports whether caller may grant and revoke role.
func canAdminister(ctx context.Context, db *gorm.DB, caller models.Address, role models.Role) (bool, error) {
	roles := repository.NewRoleRepository(db)
	if ok, err := roles.HasRole(ctx, models.RoleDefaultAdmin, caller); err != nil || ok {
		return ok, err
	}
	adminRole, err := roles.AdminRole(ctx, role)
	if err != nil {
		return false, err
	}
	if adminRole != "" {
		if ok, err := roles.HasRole(ctx, adminRole, caller); err != nil || ok {
			return ok, err
		}
	}
	if role == models.RoleFan {
		return roles.IsAssigner(ctx, caller)
	}
	return false, nil
}

// Grant gives account the role. Granting a held role is a no-op.
func (s *AccessService) Grant(ctx context.Context, caller models.Address, role models.Role, account models.Address) (*ledger.Receipt, error) {
	if err := validRole(role); err != nil {
		return nil, err
	}
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "grantRole", Caller: caller}, func(tx *ledger.Tx) error {
		ok, err := canAdminister(ctx, tx.DB, caller, role)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewUnauthorizedError(fmt.Sprintf("caller may not grant %s", role))
		}
		created, err := repository.NewRoleRepository(tx.DB).Grant(ctx, role, account, caller, tx.Now)
		if err != nil || !created {
			return err
		}
		return tx.Emit("RoleGranted", "role", role, ledger.Fields{"role": role, "account": account, "sender": caller})
	})
}

// Revoke removes the role from account. Revoking a role not held is a no-op.
func (s *AccessService) Revoke(ctx context.Context, caller models.Address, role models.Role, account models.Address) (*ledger.Receipt, error) {
	if err := validRole(role); err != nil {
		return nil, err
	}
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "revokeRole", Caller: caller}, func(tx *ledger.Tx) error {
		ok, err := canAdminister(ctx, tx.DB, caller, role)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewUnauthorizedError(fmt.Sprintf("caller may not revoke %s", role))
		}
		roles := repository.NewRoleRepository(tx.DB)
		if role == models.RoleDefaultAdmin && account == caller {
			members, total, err := roles.Members(ctx, models.RoleDefaultAdmin, 0, 1)
			if err != nil {
				return err
			}
			if total == 1 && len(members) == 1 && members[0].Account == caller {
				return models.NewValidationError("cannot revoke the last super-admin")
			}
		}
		removed, err := roles.Revoke(ctx, role, account)
		if err != nil || !removed {
			return err
		}
		return tx.Emit("RoleRevoked", "role", role, ledger.Fields{"role": role, "account": account, "sender": caller})
	})
}

// AuthorizeAssigner lets account grant and revoke FAN. Super-admin only.
func (s *AccessService) AuthorizeAssigner(ctx context.Context, caller, account models.Address) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "authorizeAssigner", Caller: caller}, func(tx *ledger.Tx) error {
		if err := requireSuperAdmin(ctx, tx.DB, caller); err != nil {
			return err
		}
		added, err := repository.NewRoleRepository(tx.DB).AddAssigner(ctx, account, caller, tx.Now)
		if err != nil || !added {
			return err
		}
		return tx.Emit("AssignerAuthorized", "assigner", account, ledger.Fields{"account": account, "sender": caller})
	})
}

// RevokeAssigner withdraws the FAN assigner capability. Super-admin only.
func (s *AccessService) RevokeAssigner(ctx context.Context, caller, account models.Address) (*ledger.Receipt, error) {
	return s.exec.Execute(ctx, ledger.Call{Op: "revokeAssigner", Caller: caller}, func(tx *ledger.Tx) error {
		if err := requireSuperAdmin(ctx, tx.DB, caller); err != nil {
			return err
		}
		removed, err := repository.NewRoleRepository(tx.DB).RemoveAssigner(ctx, account)
		if err != nil || !removed {
			return err
		}
		return tx.Emit("AssignerRevoked", "assigner", account, ledger.Fields{"account": account, "sender": caller})
	})
}

// SetRoleAdmin delegates administration of role to holders of adminRole. Super-admin only.
func (s *AccessService) SetRoleAdmin(ctx context.Context, caller models.Address, role, adminRole models.Role) (*ledger.Receipt, error) {
	if err := validRole(role); err != nil {
		return nil, err
	}
	if err := validRole(adminRole); err != nil {
		return nil, err
	}
	if role == models.RoleDefaultAdmin {
		return nil, models.NewValidationError("DEFAULT_ADMIN cannot be delegated")
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "setRoleAdmin", Caller: caller}, func(tx *ledger.Tx) error {
		if err := requireSuperAdmin(ctx, tx.DB, caller); err != nil {
			return err
		}
		roles := repository.NewRoleRepository(tx.DB)
		previous, err := roles.AdminRole(ctx, role)
		if err != nil {
			return err
		}
		changed, err := roles.SetAdminRole(ctx, role, adminRole, tx.Now)
		if err != nil || !changed {
			return err
		}
		return tx.Emit("RoleAdminChanged", "role", role, ledger.Fields{
			"role":     role,
			"previous": previous,
			"admin":    adminRole,
		})
	})
}

// Bootstrap grants DEFAULT_ADMIN to genesis when no account holds it yet.
func (s *AccessService) Bootstrap(ctx context.Context, genesis models.Address) (*ledger.Receipt, error) {
	if err := requireAccount("genesis admin", genesis); err != nil {
		return nil, err
	}
	return s.exec.Execute(ctx, ledger.Call{Op: "bootstrap", Caller: genesis}, func(tx *ledger.Tx) error {
		roles := repository.NewRoleRepository(tx.DB)
		_, total, err := roles.Members(ctx, models.RoleDefaultAdmin, 0, 0)
		if err != nil || total > 0 {
			return err
		}
		if _, err := roles.Grant(ctx, models.RoleDefaultAdmin, genesis, genesis, tx.Now); err != nil {
			return err
		}
		return tx.Emit("RoleGranted", "role", models.RoleDefaultAdmin, ledger.Fields{
			"role":    models.RoleDefaultAdmin,
			"account": genesis,
			"sender":  genesis,
		})
	})
}

func (s *AccessService) HasRole(ctx context.Context, role models.Role, account models.Address) (bool, error) {
	if err := validRole(role); err != nil {
		return false, err
	}
	return hasRole(ctx, s.exec.DB(), role, account)
}

// HasAnyRole reports whether account holds at least one of roles.
func (s *AccessService) HasAnyRole(ctx context.Context, account models.Address, roles ...models.Role) (bool, error) {
	held, err := s.heldSet(ctx, account, roles)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if held[r] {
			return true, nil
		}
	}
	return false, nil
}

// HasAllRoles reports whether account holds every one of roles. An empty set is vacuously held.
func (s *AccessService) HasAllRoles(ctx context.Context, account models.Address, roles ...models.Role) (bool, error) {
	held, err := s.heldSet(ctx, account, roles)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if !held[r] {
			return false, nil
		}
	}
	return true, nil
}

func (s *AccessService) heldSet(ctx context.Context, account models.Address, roles []models.Role) (map[models.Role]bool, error) {
	for _, r := range roles {
		if err := validRole(r); err != nil {
			return nil, err
		}
	}
	list, err := s.ListRoles(ctx, account)
	if err != nil {
		return nil, err
	}
	held := make(map[models.Role]bool, len(list))
	for _, r := range list {
		held[r] = true
	}
	return held, nil
}

func (s *AccessService) ListRoles(ctx context.Context, account models.Address) ([]models.Role, error) {
	return repository.NewRoleRepository(s.exec.DB()).Roles(ctx, account)
}

func (s *AccessService) RoleMembers(ctx context.Context, role models.Role, offset, limit int) (*Page[models.RoleAssignment], error) {
	if err := validRole(role); err != nil {
		return nil, err
	}
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewRoleRepository(s.exec.DB()).Members(ctx, role, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

func (s *AccessService) IsAssigner(ctx context.Context, account models.Address) (bool, error) {
	return repository.NewRoleRepository(s.exec.DB()).IsAssigner(ctx, account)
}

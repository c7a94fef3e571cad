package service

import (
	"testing"

	"tribehub/internal/models"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessService_GrantIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	first, err := f.access.Grant(f.ctx, superAdmin, models.RoleCreator, alice)
	require.NoError(t, err)
	assert.False(t, first.Noop())

	second, err := f.access.Grant(f.ctx, superAdmin, models.RoleCreator, alice)
	require.NoError(t, err)
	assert.True(t, second.Noop())

	// Bootstrap contributes one RoleGranted of its own.
	assert.Equal(t, int64(2), testutil.EventCount(t, f.exec, "RoleGranted"))

	ok, err := f.access.HasRole(f.ctx, models.RoleCreator, alice)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccessService_Authorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.access.AuthorizeAssigner(f.ctx, superAdmin, alice)
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller models.Address
		role   models.Role
		code   string
	}{
		{name: "super-admin grants any role", caller: superAdmin, role: models.RoleModerator},
		{name: "assigner grants fan", caller: alice, role: models.RoleFan},
		{name: "assigner cannot grant creator", caller: alice, role: models.RoleCreator, code: models.CodeUnauthorized},
		{name: "stranger cannot grant", caller: carol, role: models.RoleFan, code: models.CodeUnauthorized},
		{name: "unknown role", caller: superAdmin, role: models.Role("WIZARD"), code: models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.access.Grant(f.ctx, tt.caller, tt.role, bob)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, tt.code)
		})
	}
}

func TestAccessService_DelegatedRoleAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.access.Grant(f.ctx, superAdmin, models.RoleOrganizer, alice)
	require.NoError(t, err)

	_, err = f.access.Grant(f.ctx, alice, models.RoleCreator, bob)
	requireCode(t, err, models.CodeUnauthorized)

	_, err = f.access.SetRoleAdmin(f.ctx, superAdmin, models.RoleCreator, models.RoleOrganizer)
	require.NoError(t, err)

	_, err = f.access.Grant(f.ctx, alice, models.RoleCreator, bob)
	require.NoError(t, err)

	_, err = f.access.SetRoleAdmin(f.ctx, superAdmin, models.RoleDefaultAdmin, models.RoleOrganizer)
	requireCode(t, err, models.CodeValidation)
}

func TestAccessService_LastSuperAdminStays(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.access.Revoke(f.ctx, superAdmin, models.RoleDefaultAdmin, superAdmin)
	requireCode(t, err, models.CodeValidation)

	_, err = f.access.Grant(f.ctx, superAdmin, models.RoleDefaultAdmin, alice)
	require.NoError(t, err)
	_, err = f.access.Revoke(f.ctx, superAdmin, models.RoleDefaultAdmin, superAdmin)
	require.NoError(t, err)

	page, err := f.access.RoleMembers(f.ctx, models.RoleDefaultAdmin, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, alice, page.Items[0].Account)
}

func TestAccessService_RoleSets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.access.Grant(f.ctx, superAdmin, models.RoleFan, alice)
	require.NoError(t, err)

	anyOf, err := f.access.HasAnyRole(f.ctx, alice, models.RoleCreator, models.RoleFan)
	require.NoError(t, err)
	assert.True(t, anyOf)

	allOf, err := f.access.HasAllRoles(f.ctx, alice, models.RoleCreator, models.RoleFan)
	require.NoError(t, err)
	assert.False(t, allOf)

	vacuous, err := f.access.HasAllRoles(f.ctx, alice)
	require.NoError(t, err)
	assert.True(t, vacuous)

	roles, err := f.access.ListRoles(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleFan}, roles)
}

func TestWalletService_TransferAndMint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.wallet.Mint(f.ctx, alice, alice, 100)
	requireCode(t, err, models.CodeUnauthorized)

	_, err = f.wallet.Mint(f.ctx, superAdmin, alice, 100)
	require.NoError(t, err)

	_, err = f.wallet.Transfer(f.ctx, alice, bob, 40)
	require.NoError(t, err)

	_, err = f.wallet.Transfer(f.ctx, alice, bob, 100)
	requireCode(t, err, models.CodeInsufficientBalance)

	a, err := f.wallet.Balance(f.ctx, alice)
	require.NoError(t, err)
	b, err := f.wallet.Balance(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(60), a)
	assert.Equal(t, int64(40), b)
}

package service

import (
	"testing"

	"tribehub/internal/models"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEconomyService_OverspendLeavesBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Points Club", models.JoinPolicyPublic, 0)
	karma := f.pointType(t, alice, tribe.ID, "karma")

	_, err := f.economy.AwardPoints(f.ctx, alice, tribe.ID, bob, 50, "award.karma")
	require.NoError(t, err)

	_, err = f.economy.SpendPoints(f.ctx, alice, tribe.ID, bob, karma.ID, 100, "merch")
	requireCode(t, err, models.CodeInsufficientBalance)

	bal, err := f.economy.PointBalance(f.ctx, tribe.ID, bob, karma.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)
	assert.Zero(t, testutil.EventCount(t, f.exec, "PointsSpent"))

	_, err = f.economy.SpendPoints(f.ctx, bob, tribe.ID, bob, karma.ID, 20, "sticker")
	require.NoError(t, err)
	bal, err = f.economy.PointBalance(f.ctx, tribe.ID, bob, karma.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), bal)
}

func TestEconomyService_AwardAuthorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Issuers", models.JoinPolicyPublic, 0)
	f.pointType(t, alice, tribe.ID, "xp")

	_, err := f.economy.AwardPoints(f.ctx, bob, tribe.ID, carol, 5, "award.xp")
	requireCode(t, err, models.CodeUnauthorized)

	_, err = f.economy.GrantIssuer(f.ctx, alice, tribe.ID, bob)
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount int64
		action string
		code   string
	}{
		{name: "issuer awards", amount: 5, action: "award.xp"},
		{name: "zero amount", amount: 0, action: "award.xp", code: models.CodeValidation},
		{name: "unknown action", amount: 5, action: "award.nope", code: models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.economy.AwardPoints(f.ctx, bob, tribe.ID, carol, tt.amount, tt.action)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, tt.code)
		})
	}

	_, err = f.economy.RevokeIssuer(f.ctx, alice, tribe.ID, bob)
	require.NoError(t, err)
	_, err = f.economy.AwardPoints(f.ctx, bob, tribe.ID, carol, 5, "award.xp")
	requireCode(t, err, models.CodeUnauthorized)
}

func TestEconomyService_PointTypeConflict(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Dupes", models.JoinPolicyPublic, 0)

	_, err := f.economy.RegisterPointType(f.ctx, alice, tribe.ID, "gold", "")
	require.NoError(t, err)
	_, err = f.economy.RegisterPointType(f.ctx, alice, tribe.ID, "gold", "again")
	requireCode(t, err, models.CodeConflict)
	_, err = f.economy.RegisterPointType(f.ctx, bob, tribe.ID, "silver", "")
	requireCode(t, err, models.CodeNotAdmin)

	page, err := f.economy.PointTypes(f.ctx, tribe.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestEconomyService_TribeToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Token Town", models.JoinPolicyPublic, 0)

	_, err := f.economy.SetExchangeRate(f.ctx, alice, tribe.ID, 5)
	requireCode(t, err, models.CodeNotFound)

	_, err = f.economy.CreateTribeToken(f.ctx, alice, tribe.ID, "Town Coin", "TOWN")
	require.NoError(t, err)
	_, err = f.economy.CreateTribeToken(f.ctx, alice, tribe.ID, "Other", "OTH")
	requireCode(t, err, models.CodeConflict)

	token, err := f.economy.TribeToken(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, "TOWN", token.Symbol)

	testutil.Fund(t, f.exec, bob, 10)
	_, err = f.economy.BuyTribeTokens(f.ctx, bob, tribe.ID, 10)
	requireCode(t, err, models.CodeValidation)

	_, err = f.economy.SetExchangeRate(f.ctx, alice, tribe.ID, 5)
	require.NoError(t, err)

	_, err = f.economy.BuyTribeTokens(f.ctx, bob, tribe.ID, 10)
	require.NoError(t, err)

	tokens, err := f.economy.TokenBalance(f.ctx, tribe.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(50), tokens)

	paid, err := f.wallet.Balance(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(10), paid)

	token, err = f.economy.TribeToken(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), token.TotalSupply)
}

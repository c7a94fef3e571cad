package service

import (
	"sync"
	"testing"

	"tribehub/internal/models"
	"tribehub/internal/signature"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) collectible(t *testing.T, admin models.Address, in CreateCollectibleInput) *models.Collectible {
	t.Helper()
	c, err := f.collectibles.CreateCollectible(f.ctx, admin, in)
	require.NoError(t, err)
	return c
}

func TestCollectibleService_ConcurrentClaimsRespectSupply(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Limited", models.JoinPolicyPublic, 0)
	c := f.collectible(t, alice, CreateCollectibleInput{TribeID: tribe.ID, Name: "Badge", MaxSupply: 3})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		exhausted int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.collectibles.ClaimCollectible(f.ctx, testutil.Addr(100+n), tribe.ID, c.ID, 0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case models.HasCode(err, models.CodeSupplyExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, 2, exhausted)

	got, err := f.collectibles.GetCollectible(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalClaimed)
	assert.Zero(t, got.Remaining())
}

func TestCollectibleService_ClaimPaymentAndPoints(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Shop", models.JoinPolicyPublic, 0)
	gems := f.pointType(t, alice, tribe.ID, "gems")
	c := f.collectible(t, alice, CreateCollectibleInput{
		TribeID:        tribe.ID,
		Name:           "Poster",
		Symbol:         "PST",
		MaxSupply:      10,
		Price:          25,
		PointsRequired: 10,
		PointTypeID:    gems.ID,
	})
	testutil.Fund(t, f.exec, bob, 100)

	_, err := f.collectibles.ClaimCollectible(f.ctx, bob, tribe.ID, c.ID, 20)
	requireCode(t, err, models.CodeInsufficientPayment)

	_, err = f.collectibles.ClaimCollectible(f.ctx, bob, tribe.ID, c.ID, 30)
	requireCode(t, err, models.CodeInsufficientBalance)

	_, err = f.economy.AwardPoints(f.ctx, alice, tribe.ID, bob, 15, "award.gems")
	require.NoError(t, err)

	receipt, err := f.collectibles.ClaimCollectible(f.ctx, bob, tribe.ID, c.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(5), receipt.Refund)

	held, err := f.collectibles.HoldingOf(f.ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held)

	wallet, _ := f.wallet.Balance(f.ctx, bob)
	adminWallet, _ := f.wallet.Balance(f.ctx, alice)
	points, _ := f.economy.PointBalance(f.ctx, tribe.ID, bob, gems.ID)
	assert.Equal(t, int64(75), wallet)
	assert.Equal(t, int64(25), adminWallet)
	assert.Equal(t, int64(5), points)

	holdings, err := f.collectibles.HoldingsOf(f.ctx, bob, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), holdings.Total)
}

func TestCollectibleService_Whitelist(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "VIP", models.JoinPolicyPublic, 0)
	c := f.collectible(t, alice, CreateCollectibleInput{TribeID: tribe.ID, Name: "Pass", MaxSupply: 5})

	enabled := true
	_, err := f.collectibles.SetCollectibleWhitelist(f.ctx, bob, tribe.ID, c.ID, CollectibleWhitelistInput{Enabled: &enabled})
	requireCode(t, err, models.CodeNotAdmin)

	_, err = f.collectibles.SetCollectibleWhitelist(f.ctx, alice, tribe.ID, c.ID, CollectibleWhitelistInput{
		Enabled: &enabled,
		Add:     []models.Address{bob},
	})
	require.NoError(t, err)

	_, err = f.collectibles.ClaimCollectible(f.ctx, carol, tribe.ID, c.ID, 0)
	requireCode(t, err, models.CodeUnauthorized)
	_, err = f.collectibles.ClaimCollectible(f.ctx, bob, tribe.ID, c.ID, 0)
	require.NoError(t, err)

	_, err = f.collectibles.ClaimCollectible(f.ctx, bob, tribe.ID+1, c.ID, 0)
	requireCode(t, err, models.CodeUnknownTribe)
}

func TestRedemptionService_ReplayIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Rewards", models.JoinPolicyPublic, 0)
	stars := f.pointType(t, alice, tribe.ID, "stars")
	c := f.collectible(t, alice, CreateCollectibleInput{
		TribeID:     tribe.ID,
		Name:        "Trophy",
		MaxSupply:   10,
		PointTypeID: stars.ID,
	})
	_, err := f.economy.AwardPoints(f.ctx, alice, tribe.ID, bob, 100, "award.stars")
	require.NoError(t, err)

	verifier, err := signature.GenerateSigner()
	require.NoError(t, err)

	sig := verifier.SignHex(signature.RedemptionDigest(bob, 40, c.ID))

	_, err = f.redemption.RedeemPoints(f.ctx, bob, 40, c.ID, sig)
	requireCode(t, err, models.CodeSignatureInvalid)

	_, err = f.redemption.SetVerifier(f.ctx, alice, verifier.Address())
	requireCode(t, err, models.CodeUnauthorized)
	_, err = f.redemption.SetVerifier(f.ctx, superAdmin, verifier.Address())
	require.NoError(t, err)

	_, err = f.redemption.RedeemPoints(f.ctx, bob, 40, c.ID, sig)
	require.NoError(t, err)

	head, err := f.events.Head(f.ctx)
	require.NoError(t, err)

	_, err = f.redemption.RedeemPoints(f.ctx, bob, 40, c.ID, sig)
	requireCode(t, err, models.CodeSignatureAlreadyUsed)

	after, err := f.events.Head(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, head, after)

	points, _ := f.economy.PointBalance(f.ctx, tribe.ID, bob, stars.ID)
	held, _ := f.collectibles.HoldingOf(f.ctx, bob, c.ID)
	assert.Equal(t, int64(60), points)
	assert.Equal(t, int64(1), held)

	used, err := f.redemption.IsSignatureUsed(f.ctx, sig)
	require.NoError(t, err)
	assert.True(t, used)

	// A signature bound to bob is useless to carol.
	_, err = f.redemption.RedeemPoints(f.ctx, carol, 41, c.ID, verifier.SignHex(signature.RedemptionDigest(bob, 41, c.ID)))
	requireCode(t, err, models.CodeSignatureInvalid)
}

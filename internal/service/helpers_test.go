package service

import (
	"context"
	"testing"
	"time"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/require"
)

var (
	superAdmin = testutil.Addr(1)
	alice      = testutil.Addr(0xa11ce)
	bob        = testutil.Addr(0xb0b)
	carol      = testutil.Addr(0xca201)
)

type fixture struct {
	ctx    context.Context
	clock  *testutil.Clock
	exec   *ledger.Executor
	access *AccessService
	wallet *WalletService
	tribes *TribeService

	content      *ContentService
	economy      *EconomyService
	dispenser    *DispenserService
	collectibles *CollectibleService
	redemption   *RedemptionService
	events       *EventService
}

var testContentKey = []byte("0123456789abcdef0123456789abcdef")

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewClock()
	exec := testutil.NewExecutor(t, clock)
	f := &fixture{
		ctx:    context.Background(),
		clock:  clock,
		exec:   exec,
		access: NewAccessService(exec),
		wallet: NewWalletService(exec),
		tribes: NewTribeService(exec),

		economy:      NewEconomyService(exec),
		dispenser:    NewDispenserService(exec),
		collectibles: NewCollectibleService(exec),
		redemption:   NewRedemptionService(exec),
		events:       NewEventService(exec),
	}
	content, err := NewContentService(exec, ContentConfig{Cooldown: time.Minute, Key: testContentKey})
	require.NoError(t, err)
	f.content = content
	_, err = f.access.Bootstrap(f.ctx, superAdmin)
	require.NoError(t, err)
	return f
}

func (f *fixture) createTribe(t *testing.T, admin models.Address, name string, policy models.JoinPolicy, fee int64) *models.Tribe {
	t.Helper()
	tribe, err := f.tribes.CreateTribe(f.ctx, admin, CreateTribeInput{
		Name:       name,
		Metadata:   "ipfs://" + name,
		JoinPolicy: policy,
		EntryFee:   fee,
	})
	require.NoError(t, err)
	return tribe
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

// pointType registers a point type and an "award" action mapped to it.
func (f *fixture) pointType(t *testing.T, admin models.Address, tribeID uint, name string) *models.PointType {
	t.Helper()
	pt, err := f.economy.RegisterPointType(f.ctx, admin, tribeID, name, "")
	require.NoError(t, err)
	_, err = f.economy.RegisterAction(f.ctx, admin, tribeID, "award."+pt.Name, pt.ID)
	require.NoError(t, err)
	return pt
}

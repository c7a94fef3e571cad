package seed

import (
	"context"
	"testing"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/service"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestAccount_IsCanonical(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		a := Account()
		parsed, err := models.ParseAddress(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
}

func TestSeeder_Run(t *testing.T) {
	t.Parallel()

	clock := testutil.NewClock()
	exec := testutil.NewExecutor(t, clock)
	genesis := models.MustParseAddress("0x00000000000000000000000000000000000000aa")

	s, err := NewSeeder(exec, genesis, testKey)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := s.Run(ctx, Options{Tribes: 3, Members: 6, PostsPerTribe: 4, Seed: 42})
	require.NoError(t, err)

	assert.Len(t, res.Tribes, 3)
	assert.Len(t, res.Members, 6)
	assert.Equal(t, 12, res.Posts)
	assert.Equal(t, 3, res.Collectibles)

	access := service.NewAccessService(exec)
	ok, err := access.HasRole(ctx, models.RoleDefaultAdmin, genesis)
	require.NoError(t, err)
	assert.True(t, ok)

	head, err := exec.Head(ctx)
	require.NoError(t, err)
	events, total, err := repository.NewEventRepository(exec.DB()).List(ctx, repository.EventFilter{Entity: "tribe"}, 0, 100)
	require.NoError(t, err)
	assert.Positive(t, head)
	assert.GreaterOrEqual(t, total, int64(3))
	assert.Equal(t, "TribeCreated", events[0].Name)
}

func TestSeeder_NoMembers(t *testing.T) {
	t.Parallel()

	exec := testutil.NewExecutor(t, testutil.NewClock(), ledger.WithSinks())
	s, err := NewSeeder(exec, models.MustParseAddress("0x00000000000000000000000000000000000000bb"), testKey)
	require.NoError(t, err)

	res, err := s.Run(context.Background(), Options{Tribes: 2, Seed: 7})
	require.NoError(t, err)
	assert.Empty(t, res.Tribes)
}

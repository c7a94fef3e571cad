package service

import (
	"fmt"
	"testing"
	"time"

	"tribehub/internal/models"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTribeService_CreateTribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tribe, err := f.tribes.CreateTribe(f.ctx, alice, CreateTribeInput{
		Name:          "  Night   Owls ",
		Metadata:      "ipfs://owls",
		InitialAdmins: []models.Address{bob, alice, bob},
	})
	require.NoError(t, err)
	assert.Equal(t, "Night   Owls", tribe.Name)
	assert.Equal(t, models.JoinPolicyPublic, tribe.JoinPolicy)
	assert.Equal(t, int64(2), tribe.MemberCount)

	details, err := f.tribes.GetTribeDetails(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Address{bob}, details.CoAdmins)

	for _, who := range []models.Address{alice, bob} {
		status, err := f.tribes.GetMemberStatus(f.ctx, tribe.ID, who)
		require.NoError(t, err)
		assert.Equal(t, models.MemberStatusActive, status)
		isAdmin, err := f.tribes.IsTribeAdmin(f.ctx, tribe.ID, who)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	}
}

func TestTribeService_CreateTribeValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		in   CreateTribeInput
	}{
		{name: "empty name", in: CreateTribeInput{Name: "   "}},
		{name: "markup in name", in: CreateTribeInput{Name: "<b>loud</b>"}},
		{name: "unknown policy", in: CreateTribeInput{Name: "ok", JoinPolicy: "SECRET"}},
		{name: "negative fee", in: CreateTribeInput{Name: "ok", EntryFee: -1}},
		{name: "foreign requirement", in: CreateTribeInput{Name: "ok", Requirements: []RequirementInput{{Contract: "erc721", TokenID: 1, MinAmount: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tribes.CreateTribe(f.ctx, alice, tt.in)
			requireCode(t, err, models.CodeValidation)
		})
	}
}

func TestTribeService_DuplicateNormalizedName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	first := f.createTribe(t, alice, "Crypto Cats", models.JoinPolicyPublic, 0)

	_, err := f.tribes.CreateTribe(f.ctx, bob, CreateTribeInput{Name: "  crypto   CATS"})
	requireCode(t, err, models.CodeConflict)

	found, err := f.tribes.GetTribeByName(f.ctx, "CRYPTO cats")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, alice, found.Admin)
}

func TestTribeService_GetAllTribesPagination(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for i := 0; i < 7; i++ {
		f.createTribe(t, alice, fmt.Sprintf("tribe-%d", i), models.JoinPolicyPublic, 0)
	}

	full, err := f.tribes.GetAllTribes(f.ctx, 0, 7)
	require.NoError(t, err)
	require.Len(t, full.Items, 7)
	assert.Equal(t, int64(7), full.Total)

	var stitched []models.Tribe
	for _, offset := range []int{0, 3, 6} {
		page, err := f.tribes.GetAllTribes(f.ctx, offset, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(7), page.Total)
		stitched = append(stitched, page.Items...)
	}
	require.Len(t, stitched, 7)
	for i := range full.Items {
		assert.Equal(t, full.Items[i].ID, stitched[i].ID)
	}

	beyond, err := f.tribes.GetAllTribes(f.ctx, 50, 3)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(7), beyond.Total)

	_, err = f.tribes.GetAllTribes(f.ctx, -1, 3)
	requireCode(t, err, models.CodeValidation)
}

func TestTribeService_UpdateTribeRequiresAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Gardeners", models.JoinPolicyPublic, 0)

	metadata := "ipfs://hijacked"
	_, err := f.tribes.UpdateTribe(f.ctx, bob, tribe.ID, UpdateTribeInput{Metadata: &metadata})
	requireCode(t, err, models.CodeNotAdmin)

	details, err := f.tribes.GetTribeDetails(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://Gardeners", details.MetadataURI)

	metadata = "ipfs://gardeners-v2"
	_, err = f.tribes.UpdateTribe(f.ctx, alice, tribe.ID, UpdateTribeInput{Metadata: &metadata})
	require.NoError(t, err)
	details, err = f.tribes.GetTribeDetails(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, metadata, details.MetadataURI)
}

func TestTribeService_JoinPublicTwice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Open Door", models.JoinPolicyPublic, 0)

	res, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, res.Status)

	again, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, again.Status)
	assert.True(t, again.Receipt.Noop())

	status, err := f.tribes.GetMemberStatus(f.ctx, tribe.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, status)

	details, err := f.tribes.GetTribeDetails(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), details.MemberCount)
	assert.Equal(t, int64(1), testutil.EventCount(t, f.exec, "MemberJoined"))
}

func TestTribeService_JoinPrivate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	paid := f.createTribe(t, alice, "Paid Club", models.JoinPolicyPrivate, 30)
	free := f.createTribe(t, alice, "Quiet Club", models.JoinPolicyPrivate, 0)
	testutil.Fund(t, f.exec, bob, 100)

	_, err := f.tribes.JoinTribe(f.ctx, bob, paid.ID, 10, "")
	requireCode(t, err, models.CodeJoinDenied)
	short, _ := f.wallet.Balance(f.ctx, bob)
	assert.Equal(t, int64(100), short, "rejected join refunds the payment")

	res, err := f.tribes.JoinTribe(f.ctx, bob, paid.ID, 50, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, res.Status)
	assert.Equal(t, int64(20), res.Receipt.Refund)

	bobBal, _ := f.wallet.Balance(f.ctx, bob)
	aliceBal, _ := f.wallet.Balance(f.ctx, alice)
	assert.Equal(t, int64(70), bobBal)
	assert.Equal(t, int64(30), aliceBal)

	pending, err := f.tribes.JoinTribe(f.ctx, carol, free.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusPending, pending.Status)

	_, err = f.tribes.ApproveMember(f.ctx, bob, free.ID, carol)
	requireCode(t, err, models.CodeNotAdmin)
	_, err = f.tribes.ApproveMember(f.ctx, alice, free.ID, carol)
	require.NoError(t, err)

	status, err := f.tribes.GetMemberStatus(f.ctx, free.ID, carol)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, status)
}

func TestTribeService_JoinWhitelistedPrivate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Friends", models.JoinPolicyPrivate, 30)

	_, err := f.tribes.UpdateTribe(f.ctx, alice, tribe.ID, UpdateTribeInput{WhitelistAdd: []models.Address{bob}})
	require.NoError(t, err)
	ok, err := f.tribes.IsAddressWhitelisted(f.ctx, tribe.ID, bob)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, res.Status)
}

func TestTribeService_JoinInviteOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Secret Garden", models.JoinPolicyInviteOnly, 0)

	_, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	requireCode(t, err, models.CodeJoinDenied)

	expires := f.clock.Now().Add(time.Hour)
	_, err = f.tribes.CreateInvite(f.ctx, alice, tribe.ID, "open-sesame", 1, &expires)
	require.NoError(t, err)
	_, err = f.tribes.CreateInvite(f.ctx, alice, tribe.ID, "open-sesame", 1, nil)
	requireCode(t, err, models.CodeConflict)

	res, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "open-sesame")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, res.Status)

	_, err = f.tribes.JoinTribe(f.ctx, carol, tribe.ID, 0, "open-sesame")
	requireCode(t, err, models.CodeJoinDenied)
}

func TestTribeService_BanAndLeave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Strict", models.JoinPolicyPublic, 0)

	_, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)

	_, err = f.tribes.BanMember(f.ctx, alice, tribe.ID, bob)
	require.NoError(t, err)
	_, err = f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	requireCode(t, err, models.CodeJoinDenied)
	_, err = f.tribes.LeaveTribe(f.ctx, bob, tribe.ID)
	requireCode(t, err, models.CodeValidation)

	_, err = f.tribes.BanMember(f.ctx, alice, tribe.ID, alice)
	requireCode(t, err, models.CodeValidation)

	_, err = f.tribes.UnbanMember(f.ctx, alice, tribe.ID, bob)
	require.NoError(t, err)
	_, err = f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)
	_, err = f.tribes.LeaveTribe(f.ctx, bob, tribe.ID)
	require.NoError(t, err)

	status, err := f.tribes.GetMemberStatus(f.ctx, tribe.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusNone, status)

	_, err = f.tribes.LeaveTribe(f.ctx, alice, tribe.ID)
	requireCode(t, err, models.CodeValidation)

	details, err := f.tribes.GetTribeDetails(f.ctx, tribe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), details.MemberCount)
}

func TestTribeService_Deactivate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Fading", models.JoinPolicyPublic, 0)

	_, err := f.tribes.DeactivateTribe(f.ctx, bob, tribe.ID)
	requireCode(t, err, models.CodeNotAdmin)

	_, err = f.tribes.DeactivateTribe(f.ctx, superAdmin, tribe.ID)
	require.NoError(t, err)

	_, err = f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	requireCode(t, err, models.CodeUnknownTribe)

	_, err = f.tribes.JoinTribe(f.ctx, bob, 999, 0, "")
	requireCode(t, err, models.CodeUnknownTribe)
}

func TestTribeService_UserTribesAndFollows(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.createTribe(t, alice, "A", models.JoinPolicyPublic, 0)
	b := f.createTribe(t, alice, "B", models.JoinPolicyPublic, 0)

	_, err := f.tribes.JoinTribe(f.ctx, bob, b.ID, 0, "")
	require.NoError(t, err)

	page, err := f.tribes.GetUserTribes(f.ctx, bob, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)

	first, err := f.tribes.FollowTribe(f.ctx, bob, a.ID)
	require.NoError(t, err)
	assert.False(t, first.Noop())
	second, err := f.tribes.FollowTribe(f.ctx, bob, a.ID)
	require.NoError(t, err)
	assert.True(t, second.Noop())

	members, err := f.tribes.GetMembers(f.ctx, b.ID, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), members.Total)
}

package service

import (
	"strconv"
	"testing"
	"time"

	"tribehub/internal/models"
	"tribehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_PostingRules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Writers", models.JoinPolicyPublic, 0)

	_, err := f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://hello"})
	requireCode(t, err, models.CodeUnauthorized)

	_, err = f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)

	post, err := f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://hello"})
	require.NoError(t, err)
	assert.Equal(t, bob, post.Creator)

	_, err = f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://again"})
	requireCode(t, err, models.CodeRateLimited)

	f.clock.Advance(time.Minute)
	_, err = f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://again"})
	require.NoError(t, err)

	_, err = f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: 999, Metadata: "ipfs://lost"})
	requireCode(t, err, models.CodeUnknownTribe)

	_, err = f.content.CreatePost(f.ctx, alice, CreatePostInput{TribeID: tribe.ID, Metadata: "<script>x</script>"})
	requireCode(t, err, models.CodeValidation)
}

func TestContentService_CooldownExemption(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Busy", models.JoinPolicyPublic, 0)

	_, err := f.access.Grant(f.ctx, superAdmin, models.RoleRateLimitExempt, alice)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.content.CreatePost(f.ctx, alice, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://burst/" + strconv.Itoa(i)})
		require.NoError(t, err)
	}

	page, err := f.content.TribePosts(f.ctx, tribe.ID, 0, 10, models.ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "ipfs://burst/2", page.Items[0].Metadata)
}

func TestContentService_GatedPostsAreRedacted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Insiders", models.JoinPolicyPublic, 0)
	gold := f.pointType(t, alice, tribe.ID, "gold")

	post, err := f.content.CreatePost(f.ctx, alice, CreatePostInput{
		TribeID:  tribe.ID,
		Metadata: "ipfs://secret",
		Access:   &AccessRule{Kind: models.AccessPoints, Ref: strconv.FormatUint(uint64(gold.ID), 10), Min: 10},
	})
	require.NoError(t, err)
	assert.True(t, post.Gated)

	tests := []struct {
		name     string
		viewer   models.Address
		redacted bool
	}{
		{name: "creator", viewer: alice},
		{name: "anonymous", viewer: models.ZeroAddress, redacted: true},
		{name: "viewer without points", viewer: bob, redacted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.content.GetPost(f.ctx, post.ID, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.redacted, got.Redacted)
			if tt.redacted {
				assert.Empty(t, got.Metadata)
			} else {
				assert.Equal(t, "ipfs://secret", got.Metadata)
			}
		})
	}

	_, err = f.content.Like(f.ctx, bob, post.ID)
	requireCode(t, err, models.CodeUnauthorized)

	_, err = f.economy.AwardPoints(f.ctx, alice, tribe.ID, bob, 10, "award.gold")
	require.NoError(t, err)
	got, err := f.content.GetPost(f.ctx, post.ID, bob)
	require.NoError(t, err)
	assert.False(t, got.Redacted)
	assert.Equal(t, "ipfs://secret", got.Metadata)
}

func TestContentService_InvalidAccessRules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Rules", models.JoinPolicyPublic, 0)

	tests := []struct {
		name string
		rule AccessRule
		code string
	}{
		{name: "unknown kind", rule: AccessRule{Kind: "VIBES"}, code: models.CodeValidation},
		{name: "members with ref", rule: AccessRule{Kind: models.AccessMembers, Ref: "1"}, code: models.CodeValidation},
		{name: "missing collectible", rule: AccessRule{Kind: models.AccessCollectible, Ref: "42", Min: 1}, code: models.CodeNotFound},
		{name: "points without min", rule: AccessRule{Kind: models.AccessPoints, Ref: "1"}, code: models.CodeValidation},
		{name: "unknown role", rule: AccessRule{Kind: models.AccessRole, Ref: "WIZARD"}, code: models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			_, err := f.content.CreatePost(f.ctx, alice, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://x", Access: &rule})
			requireCode(t, err, tt.code)
		})
	}
}

func TestContentService_Interactions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Chatty", models.JoinPolicyPublic, 0)
	post, err := f.content.CreatePost(f.ctx, alice, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://post"})
	require.NoError(t, err)

	first, err := f.content.Like(f.ctx, bob, post.ID)
	require.NoError(t, err)
	assert.False(t, first.Noop())
	again, err := f.content.Like(f.ctx, bob, post.ID)
	require.NoError(t, err)
	assert.True(t, again.Noop())

	_, err = f.content.Share(f.ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = f.content.Save(f.ctx, carol, post.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.content.Comment(f.ctx, bob, post.ID, "ipfs://same-comment")
		require.NoError(t, err)
	}

	_, err = f.content.Like(f.ctx, bob, 999)
	requireCode(t, err, models.CodeUnknownPost)

	got, err := f.content.GetPost(f.ctx, post.ID, models.ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
	assert.Equal(t, int64(1), got.ShareCount)
	assert.Equal(t, int64(1), got.SaveCount)
	assert.Equal(t, int64(2), got.CommentCount)

	comments, err := f.content.Comments(f.ctx, post.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), comments.Total)
}

func TestContentService_EditPermissions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tribe := f.createTribe(t, alice, "Editors", models.JoinPolicyPublic, 0)
	_, err := f.tribes.JoinTribe(f.ctx, bob, tribe.ID, 0, "")
	require.NoError(t, err)
	post, err := f.content.CreatePost(f.ctx, bob, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://v1"})
	require.NoError(t, err)

	_, err = f.content.UpdatePostMetadata(f.ctx, carol, post.ID, "ipfs://vandal")
	requireCode(t, err, models.CodeNotOwner)

	_, err = f.content.UpdatePostMetadata(f.ctx, alice, post.ID, "ipfs://v2")
	require.NoError(t, err)

	_, err = f.access.Grant(f.ctx, superAdmin, models.RoleModerator, carol)
	require.NoError(t, err)
	_, err = f.content.UpdatePostMetadata(f.ctx, carol, post.ID, "ipfs://v3")
	require.NoError(t, err)

	got, err := f.content.GetPost(f.ctx, post.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v3", got.Metadata)
	assert.NotNil(t, got.EditedAt)
}

func TestContentService_FeedForUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	joined := f.createTribe(t, alice, "Joined", models.JoinPolicyPublic, 0)
	followed := f.createTribe(t, alice, "Followed", models.JoinPolicyPublic, 0)
	other := f.createTribe(t, alice, "Other", models.JoinPolicyPublic, 0)
	_, err := f.access.Grant(f.ctx, superAdmin, models.RoleRateLimitExempt, alice)
	require.NoError(t, err)

	for _, tribe := range []*models.Tribe{joined, followed, other} {
		_, err := f.content.CreatePost(f.ctx, alice, CreatePostInput{TribeID: tribe.ID, Metadata: "ipfs://" + tribe.Name})
		require.NoError(t, err)
	}

	_, err = f.tribes.JoinTribe(f.ctx, bob, joined.ID, 0, "")
	require.NoError(t, err)
	_, err = f.tribes.FollowTribe(f.ctx, bob, followed.ID)
	require.NoError(t, err)

	feed, err := f.content.FeedForUser(f.ctx, bob, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), feed.Total)
	assert.Equal(t, "ipfs://Followed", feed.Items[0].Metadata)
	assert.Equal(t, "ipfs://Joined", feed.Items[1].Metadata)

	mine, err := f.content.UserPosts(f.ctx, alice, 0, 2, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)
	assert.Len(t, mine.Items, 2)

	empty, err := f.content.FeedForUser(f.ctx, testutil.Addr(77), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Items)
}

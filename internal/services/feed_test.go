package services

import (
	"context"
	"testing"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []FeedItem) []uint {
	out := make([]uint, len(items))
	for i, it := range items {
		out[i] = it.Contribution.ID
	}
	return out
}

func TestPersonalFeedEmptyWithoutFollows(t *testing.T) {
	f := newFixture(t, config.FeedPolicyPersonal)
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	f.post(t, b, models.CategoryFood)

	items, err := f.feed.PersonalFeed(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPersonalFeedFollowedAuthorAndGlobal(t *testing.T) {
	f := newFixture(t, config.FeedPolicyPersonal)
	ctx := context.Background()
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.register(t, "carol")

	_, err := f.social.ToggleFollow(ctx, a, b.ID)
	require.NoError(t, err)
	food := f.post(t, b, models.CategoryFood)

	items, err := f.feed.PersonalFeed(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []uint{food.ID}, ids(items))

	global, err := f.feed.GlobalFeed(ctx, c)
	require.NoError(t, err)
	assert.Contains(t, ids(global), food.ID)
}

func TestPersonalFeedDeduplicatesAndOrdersNewestFirst(t *testing.T) {
	f := newFixture(t, config.FeedPolicyPersonal)
	ctx := context.Background()
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.register(t, "carol")

	_, err := f.social.ToggleFollow(ctx, a, b.ID)
	require.NoError(t, err)
	_, err = f.identity.EditProfile(ctx, a, []string{"FOOD"})
	require.NoError(t, err)

	first := f.post(t, b, models.CategoryFood)   // followed author and followed category
	second := f.post(t, c, models.CategoryFood)  // followed category only
	f.post(t, c, models.CategoryDance)           // neither
	fourth := f.post(t, b, models.CategoryDance) // followed author only

	items, err := f.feed.PersonalFeed(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []uint{fourth.ID, second.ID, first.ID}, ids(items))
}

func TestHomeFollowsPolicy(t *testing.T) {
	ctx := context.Background()

	personal := newFixture(t, config.FeedPolicyPersonal)
	a := personal.register(t, "alice")
	b := personal.register(t, "bob")
	personal.post(t, b, models.CategoryFood)
	items, err := personal.feed.Home(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, items)

	global := newFixture(t, config.FeedPolicyGlobal)
	a = global.register(t, "alice")
	b = global.register(t, "bob")
	global.post(t, b, models.CategoryFood)
	items, err = global.feed.Home(ctx, a)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, config.FeedPolicyGlobal, global.feed.Policy())
}

func TestFeedItemsCarryLikeState(t *testing.T) {
	f := newFixture(t, config.FeedPolicyGlobal)
	ctx := context.Background()
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.post(t, b, models.CategoryPlaces)

	_, err := f.social.ToggleLike(ctx, a, c.ID)
	require.NoError(t, err)
	_, err = f.social.AddComment(ctx, a, c.ID, "Beautiful")
	require.NoError(t, err)

	items, err := f.feed.GlobalFeed(ctx, a)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Liked)
	assert.Equal(t, int64(1), items[0].LikesCount)
	assert.Equal(t, "bob", items[0].Contribution.Author.Handle)
	assert.Equal(t, "Telangana", items[0].Contribution.Region.Name)
	require.Len(t, items[0].Contribution.Comments, 1)
	assert.Equal(t, "alice", items[0].Contribution.Comments[0].Author.Handle)

	items, err = f.feed.GlobalFeed(ctx, b)
	require.NoError(t, err)
	assert.False(t, items[0].Liked)
}

func TestPublicProfile(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	f.post(t, b, models.CategoryFood)
	_, err := f.social.ToggleFollow(ctx, a, b.ID)
	require.NoError(t, err)

	page, err := f.feed.PublicProfile(ctx, "bob", a)
	require.NoError(t, err)
	assert.Equal(t, b.ID, page.User.ID)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Followers)
	assert.Zero(t, page.Following)
	assert.True(t, page.IsFollowing)
	assert.False(t, page.IsSelf)

	anonymous, err := f.feed.PublicProfile(ctx, "bob", nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFollowing)

	_, err = f.feed.PublicProfile(ctx, "ghost", a)
	requireNotFound(t, err)
}

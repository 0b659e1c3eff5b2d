package cache_test

import (
	"testing"

	"github.com/pubky/franky/internal/cache"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) *cache.ViewCache {
	t.Helper()

	views, err := cache.New(&config.Cache{Enabled: true, MaxViews: 100}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, views)
	t.Cleanup(views.Close)

	return views
}

func testView(id types.PostID) *types.PostView {
	return &types.PostView{
		Details: &types.PostDetails{ID: id, Content: "hello", Kind: types.PostKindShort, URI: id.URI()},
		Counts:  types.NewPostCounts(id),
		Relationships: &types.PostRelationships{
			ID:        id,
			Mentioned: []string{},
		},
		Tags: &types.PostTags{
			ID:   id,
			Tags: types.TagCollection{{Label: "go", Taggers: []string{"u1"}, TaggersCount: 1}},
		},
	}
}

func TestViewCacheSetGet(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	views := newTestCache(t)
	id := types.NewPostID("author", "p1")

	views.Set(ctx, testView(id), views.Epoch())
	views.Wait()

	got, ok := views.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Details.Content)

	// Returned views are copies
	got.Tags.Tags[0].Taggers[0] = "changed"

	again, ok := views.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "u1", again.Tags.Tags[0].Taggers[0])
}

func TestViewCacheInvalidate(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	views := newTestCache(t)
	id := types.NewPostID("author", "p1")

	views.Set(ctx, testView(id), views.Epoch())
	views.Wait()

	views.Invalidate(ctx, id)
	views.Wait()

	_, ok := views.Get(ctx, id)
	assert.False(t, ok)
}

func TestViewCacheStaleEpoch(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	views := newTestCache(t)
	id := types.NewPostID("author", "p1")

	epoch := views.Epoch()
	views.Invalidate(ctx, id)

	views.Set(ctx, testView(id), epoch)
	views.Wait()

	_, ok := views.Get(ctx, id)
	assert.False(t, ok)
}

func TestViewCacheDisabled(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	views, err := cache.New(&config.Cache{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, views)

	id := types.NewPostID("author", "p1")
	views.Set(ctx, testView(id), views.Epoch())
	views.Invalidate(ctx, id)
	views.Wait()
	views.Close()

	_, ok := views.Get(ctx, id)
	assert.False(t, ok)
}

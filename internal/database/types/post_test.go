package types_test

import (
	"testing"

	"github.com/pubky/franky/internal/database/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView(t *testing.T) *types.PostView {
	t.Helper()

	id := types.NewPostID("alice", "0001")
	tags := types.NewPostTags(id)
	require.NoError(t, tags.Tags.SaveTag("go", "bob"))

	return &types.PostView{
		Details: &types.PostDetails{
			ID: id, Content: "hello", Kind: types.PostKindShort, URI: id.URI(), Attachments: []string{"file://a"},
		},
		Counts:        &types.PostCounts{ID: id, Tags: 1, UniqueTags: 1},
		Relationships: &types.PostRelationships{ID: id, Mentioned: []string{"carol"}, Replied: lo.ToPtr("x")},
		Tags:          tags,
	}
}

func TestPostView_ForViewer(t *testing.T) {
	t.Parallel()

	view := testView(t)

	assert.True(t, view.ForViewer("bob").Tags.Tags[0].Relationship)
	assert.False(t, view.ForViewer("carol").Tags.Tags[0].Relationship)
	assert.False(t, view.ForViewer("").Tags.Tags[0].Relationship)

	var missing *types.PostView
	assert.Nil(t, missing.ForViewer("bob"))
}

func TestPostView_Clone(t *testing.T) {
	t.Parallel()

	view := testView(t)
	clone := view.Clone()
	require.Equal(t, view, clone)

	clone.Details.Attachments[0] = "changed"
	clone.Relationships.Mentioned[0] = "changed"
	clone.Counts.Tags = 9
	clone.Tags.Tags[0].Taggers[0] = "changed"

	assert.Equal(t, "file://a", view.Details.Attachments[0])
	assert.Equal(t, "carol", view.Relationships.Mentioned[0])
	assert.Equal(t, int64(1), view.Counts.Tags)
	assert.Equal(t, "bob", view.Tags.Tags[0].Taggers[0])
}

func TestPostKind_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, types.PostKindShort.Valid())
	assert.True(t, types.PostKindLong.Valid())
	assert.False(t, types.PostKind("image").Valid())
	assert.False(t, types.PostKind("").Valid())
}

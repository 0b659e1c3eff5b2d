package service_test

import (
	"testing"

	"github.com/pubky/franky/internal/database/service"
	"github.com/pubky/franky/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService_Load(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	parent := types.NewPostID("alice", "0001")
	env.createPost(t, parent)

	_, err := env.post.Reply(t.Context(), parent, service.CreatePostParams{PostID: "bob:0002"})
	require.NoError(t, err)
	_, err = env.tag.Save(t.Context(), parent, "go", "bob")
	require.NoError(t, err)
	_, err = env.userTag.Save(t.Context(), "alice", "friendly", "bob")
	require.NoError(t, err)

	snapshot, err := env.snapshot.Load(t.Context())
	require.NoError(t, err)

	assert.Len(t, snapshot.Details, 2)
	assert.Len(t, snapshot.Counts, 2)
	assert.Len(t, snapshot.Relationships, 2)
	assert.Len(t, snapshot.Tags, 2)
	assert.Len(t, snapshot.UserCounts, 2)
	require.Len(t, snapshot.UserTags, 1)

	assert.Equal(t, parent, snapshot.Details[0].ID)
	assert.Equal(t, int64(1), snapshot.Counts[0].Replies)
	assert.Equal(t, "friendly", snapshot.UserTags[0].Tags[0].Label)
}

func TestSnapshotService_Empty(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)

	snapshot, err := env.snapshot.Load(t.Context())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Details)
	assert.Empty(t, snapshot.UserTags)
}

package service_test

import (
	"net/http"
	"testing"

	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTagService_SaveAndRemove(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)

	tags, err := env.userTag.Save(t.Context(), "alice", "Friendly", "bob")
	require.NoError(t, err)
	require.Len(t, tags.Tags, 1)
	assert.Equal(t, "friendly", tags.Tags[0].Label)
	assert.True(t, tags.Tags[0].Relationship)

	_, err = env.userTag.Save(t.Context(), "alice", "friendly", "carol")
	require.NoError(t, err)
	_, err = env.userTag.Save(t.Context(), "alice", "dev", "carol")
	require.NoError(t, err)

	alice := env.userCounts(t, "alice")
	assert.Equal(t, int64(3), alice.Tags)
	assert.Equal(t, int64(2), alice.UniqueTags)
	assert.Zero(t, alice.Tagged)
	assert.Equal(t, int64(2), env.userCounts(t, "carol").Tagged)

	asBob, err := env.user.GetTags(t.Context(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, asBob.Tags, 2)
	assert.True(t, asBob.Tags.FindByLabel("friendly").Relationship)
	assert.False(t, asBob.Tags.FindByLabel("dev").Relationship)

	_, err = env.userTag.Remove(t.Context(), "alice", "friendly", "bob")
	require.NoError(t, err)

	alice = env.userCounts(t, "alice")
	assert.Equal(t, int64(2), alice.Tags)
	assert.Equal(t, int64(2), alice.UniqueTags)
	assert.Zero(t, env.userCounts(t, "bob").Tagged)

	event := env.notifier.last()
	assert.Equal(t, events.KindUserUntagged, event.Kind)
	assert.Equal(t, "alice", event.Subject)
	assert.Equal(t, "bob", event.Actor)
}

func TestUserTagService_Errors(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)

	_, err := env.userTag.Remove(t.Context(), "alice", "friendly", "bob")
	require.ErrorIs(t, err, types.ErrTagNotFound)
	requireDatabaseError(t, err, types.ErrorKindDeleteFailed, http.StatusNotFound)

	_, err = env.userTag.Save(t.Context(), "", "friendly", "bob")
	require.ErrorIs(t, err, types.ErrInvalidUserID)
	requireDatabaseError(t, err, types.ErrorKindSaveFailed, http.StatusBadRequest)

	_, err = env.userTag.Save(t.Context(), "alice", "friendly", "bob")
	require.NoError(t, err)

	_, err = env.userTag.Save(t.Context(), "alice", "friendly", "bob")
	requireDatabaseError(t, err, types.ErrorKindSaveFailed, http.StatusConflict)

	_, err = env.userTag.Remove(t.Context(), "alice", "friendly", "carol")
	require.ErrorIs(t, err, types.ErrNotTagged)

	assert.Equal(t, int64(1), env.userCounts(t, "alice").Tags)
	assert.Equal(t, int64(1), env.userCounts(t, "bob").Tagged)
}

func TestUserService_Defaults(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)

	counts, err := env.user.GetCounts(t.Context(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", counts.ID)
	assert.Zero(t, counts.Posts)

	tags, err := env.user.GetTags(t.Context(), "nobody", "")
	require.NoError(t, err)
	assert.NotNil(t, tags.Tags)
	assert.Empty(t, tags.Tags)

	_, err = env.user.GetCounts(t.Context(), "")
	requireDatabaseError(t, err, types.ErrorKindQueryFailed, http.StatusBadRequest)
}

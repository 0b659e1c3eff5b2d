package types_test

import (
	"testing"

	"github.com/pubky/franky/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCollection_SaveTag(t *testing.T) {
	t.Parallel()

	var tags types.TagCollection

	require.NoError(t, tags.SaveTag(" Go ", "bob"))
	require.NoError(t, tags.SaveTag("go", "carol"))
	require.NoError(t, tags.SaveTag("rust", "bob"))

	require.Len(t, tags, 2)
	assert.Equal(t, []string{"go", "rust"}, tags.Labels())

	entry := tags.FindByLabel("GO")
	require.NotNil(t, entry)
	assert.Equal(t, []string{"bob", "carol"}, entry.Taggers)
	assert.Equal(t, int64(2), entry.TaggersCount)
	assert.True(t, entry.Relationship)

	total, unique := tags.Totals()
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), unique)
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Go", want: "go"},
		{input: "  rust\t", want: "rust"},
		{input: "\uff27\uff4f", want: "go"}, // Fullwidth letters
		{input: "caf\u0065\u0301", want: "caf\u00e9"},
		{input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, types.NormalizeLabel(tt.input))
		})
	}
}

func TestTagCollection_SaveTagErrors(t *testing.T) {
	t.Parallel()

	tags := types.TagCollection{}
	require.NoError(t, tags.SaveTag("go", "bob"))

	require.ErrorIs(t, tags.SaveTag("go", "bob"), types.ErrAlreadyTagged)
	require.ErrorIs(t, tags.SaveTag("   ", "bob"), types.ErrInvalidLabel)

	entry := tags.FindByLabel("go")
	require.NotNil(t, entry)
	assert.Equal(t, int64(1), entry.TaggersCount)
}

func TestTagCollection_RemoveTag(t *testing.T) {
	t.Parallel()

	tags := types.TagCollection{}
	require.NoError(t, tags.SaveTag("go", "bob"))
	require.NoError(t, tags.SaveTag("go", "carol"))

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		tags := tags.Clone()
		require.ErrorIs(t, tags.RemoveTag("rust", "bob"), types.ErrTagNotFound)
		require.ErrorIs(t, tags.RemoveTag("go", "dave"), types.ErrNotTagged)
		require.ErrorIs(t, tags.RemoveTag("", "bob"), types.ErrInvalidLabel)
	})

	t.Run("partial then full removal", func(t *testing.T) {
		t.Parallel()

		tags := tags.Clone()
		require.NoError(t, tags.RemoveTag("go", "bob"))

		entry := tags.FindByLabel("go")
		require.NotNil(t, entry)
		assert.Equal(t, []string{"carol"}, entry.Taggers)
		assert.Equal(t, int64(1), entry.TaggersCount)

		require.NoError(t, tags.RemoveTag("go", "carol"))
		assert.Empty(t, tags)
		assert.Nil(t, tags.FindByLabel("go"))
	})
}

func TestTagCollection_ProjectFor(t *testing.T) {
	t.Parallel()

	tags := types.TagCollection{}
	require.NoError(t, tags.SaveTag("go", "bob"))
	require.NoError(t, tags.SaveTag("rust", "carol"))

	projected := tags.ProjectFor("carol")
	assert.False(t, projected[0].Relationship)
	assert.True(t, projected[1].Relationship)

	// Projection leaves the source alone
	projected[0].Taggers[0] = "mallory"
	assert.Equal(t, "bob", tags[0].Taggers[0])

	for _, entry := range tags.ProjectFor("") {
		assert.False(t, entry.Relationship)
	}
}

func TestTagCollection_Clone(t *testing.T) {
	t.Parallel()

	var empty types.TagCollection
	assert.Nil(t, empty.Clone())

	tags := types.TagCollection{}
	require.NoError(t, tags.SaveTag("go", "bob"))

	clone := tags.Clone()
	require.NoError(t, clone.SaveTag("go", "carol"))
	assert.Equal(t, int64(1), tags[0].TaggersCount)
	assert.Equal(t, int64(2), clone[0].TaggersCount)
}

package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	dbTypes "github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/export"
	exportCSV "github.com/pubky/franky/internal/export/csv"
	"github.com/pubky/franky/internal/export/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticLoader struct {
	snapshot *dbTypes.Snapshot
	err      error
}

func (l staticLoader) Load(context.Context) (*dbTypes.Snapshot, error) {
	return l.snapshot, l.err
}

func testSnapshot() *dbTypes.Snapshot {
	post := dbTypes.NewPostID("alice", "p1")
	reply := dbTypes.NewPostID("bob", "r1")
	parentURI := post.URI()

	return &dbTypes.Snapshot{
		Details: []*dbTypes.PostDetails{
			{ID: post, Content: "hello", IndexedAt: 1, Kind: dbTypes.PostKindShort, URI: post.URI()},
			{ID: reply, Content: "hi", IndexedAt: 2, Kind: dbTypes.PostKindShort, URI: reply.URI(), Attachments: []string{"file://a"}},
		},
		Counts: []*dbTypes.PostCounts{
			{ID: post, Tags: 2, UniqueTags: 1, Replies: 1},
			{ID: reply},
		},
		Relationships: []*dbTypes.PostRelationships{
			{ID: post, Mentioned: []string{}},
			{ID: reply, Replied: &parentURI, Mentioned: []string{"alice"}},
		},
		Tags: []*dbTypes.PostTags{
			{ID: post, Tags: dbTypes.TagCollection{{Label: "go", Taggers: []string{"bob", "carol"}, TaggersCount: 2}}},
			{ID: reply, Tags: dbTypes.TagCollection{}},
		},
		UserCounts: []*dbTypes.UserCounts{
			{ID: "alice", Posts: 1},
			{ID: "bob", Posts: 1, Replies: 1, Tagged: 1},
		},
		UserTags: []*dbTypes.UserTags{
			{ID: "alice", Tags: dbTypes.TagCollection{{Label: "friendly", Taggers: []string{"bob"}, TaggersCount: 1}}},
		},
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	records, err := export.Flatten(testSnapshot())
	require.NoError(t, err)

	require.Len(t, records.Posts, 2)
	assert.Equal(t, "alice", records.Posts[0].Author)
	assert.Equal(t, int64(1), records.Posts[0].Replies)
	assert.Equal(t, "[]", records.Posts[0].Attachments)
	assert.Empty(t, records.Posts[0].Replied)
	assert.Equal(t, `["file://a"]`, records.Posts[1].Attachments)
	assert.Equal(t, `["alice"]`, records.Posts[1].Mentioned)
	assert.Equal(t, "pubky://alice/pub/pubky.app/posts/p1", records.Posts[1].Replied)

	require.Len(t, records.PostTags, 2)
	assert.Equal(t, "carol", records.PostTags[1].Tagger)

	assert.Len(t, records.Users, 2)
	require.Len(t, records.UserTags, 1)
	assert.Equal(t, "friendly", records.UserTags[0].Label)
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(t.TempDir(), "out")
	exporter := export.New(staticLoader{snapshot: testSnapshot()}, outDir, zaptest.NewLogger(t))

	manifest, err := exporter.ExportAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Posts)
	assert.Equal(t, 2, manifest.PostTags)

	assert.FileExists(t, filepath.Join(outDir, sqlite.FileName))
	assert.FileExists(t, filepath.Join(outDir, exportCSV.PostsFile))

	data, err := os.ReadFile(filepath.Join(outDir, export.ManifestFile))
	require.NoError(t, err)

	var stored export.Manifest
	require.NoError(t, sonic.Unmarshal(data, &stored))
	assert.Equal(t, export.EngineVersion, stored.EngineVersion)
	assert.ElementsMatch(t, []export.Format{export.FormatSQLite, export.FormatCSV}, stored.Formats)
}

func TestExportAllErrors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		exporter := export.New(staticLoader{snapshot: testSnapshot()}, t.TempDir(), zaptest.NewLogger(t), "parquet")
		_, err := exporter.ExportAll(t.Context())
		require.ErrorIs(t, err, export.ErrUnsupportedFormat)
	})

	t.Run("loader failure", func(t *testing.T) {
		t.Parallel()

		loadErr := errors.New("boom")
		exporter := export.New(staticLoader{err: loadErr}, t.TempDir(), zaptest.NewLogger(t))
		_, err := exporter.ExportAll(t.Context())
		require.ErrorIs(t, err, loadErr)
	})
}

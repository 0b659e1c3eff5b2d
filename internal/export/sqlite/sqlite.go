package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pubky/franky/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FileName is the name of the exported database.
const FileName = "franky.db"

const schema = `
CREATE TABLE posts (
	id TEXT PRIMARY KEY,
	author TEXT NOT NULL,
	kind TEXT NOT NULL,
	uri TEXT NOT NULL,
	content TEXT NOT NULL,
	indexed_at INTEGER NOT NULL,
	attachments TEXT NOT NULL,
	mentioned TEXT NOT NULL,
	replied TEXT,
	reposted TEXT,
	tags INTEGER NOT NULL,
	unique_tags INTEGER NOT NULL,
	replies INTEGER NOT NULL,
	reposts INTEGER NOT NULL
);
CREATE TABLE post_tags (
	post_id TEXT NOT NULL,
	label TEXT NOT NULL,
	tagger TEXT NOT NULL,
	PRIMARY KEY (post_id, label, tagger)
);
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	tagged INTEGER NOT NULL,
	tags INTEGER NOT NULL,
	unique_tags INTEGER NOT NULL,
	posts INTEGER NOT NULL,
	replies INTEGER NOT NULL,
	following INTEGER NOT NULL,
	followers INTEGER NOT NULL,
	friends INTEGER NOT NULL,
	bookmarks INTEGER NOT NULL
);
CREATE TABLE user_tags (
	user_id TEXT NOT NULL,
	label TEXT NOT NULL,
	tagger TEXT NOT NULL,
	PRIMARY KEY (user_id, label, tagger)
);
CREATE INDEX idx_posts_replied ON posts (replied);
CREATE INDEX idx_posts_reposted ON posts (reposted);
`

// batchSize is the number of rows inserted per transaction.
const batchSize = 1000

// Exporter handles exporting the cache to a standalone SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes all records to a fresh database, replacing any previous export.
func (e *Exporter) Export(records *types.Records) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	err = insertBatches(conn, records.Posts,
		"INSERT INTO posts (id, author, kind, uri, content, indexed_at, attachments, mentioned, replied, reposted, "+
			"tags, unique_tags, replies, reposts) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		func(r *types.PostRecord) []any {
			return []any{
				r.ID, r.Author, r.Kind, r.URI, r.Content, r.IndexedAt, r.Attachments, r.Mentioned,
				nullable(r.Replied), nullable(r.Reposted), r.Tags, r.UniqueTags, r.Replies, r.Reposts,
			}
		})
	if err != nil {
		return fmt.Errorf("failed to export posts: %w", err)
	}

	if err := insertBatches(conn, records.PostTags,
		"INSERT INTO post_tags (post_id, label, tagger) VALUES (?, ?, ?)", tagArgs); err != nil {
		return fmt.Errorf("failed to export post tags: %w", err)
	}

	err = insertBatches(conn, records.Users,
		"INSERT INTO users (id, tagged, tags, unique_tags, posts, replies, following, followers, friends, bookmarks) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		func(r *types.UserRecord) []any {
			return []any{
				r.ID, r.Tagged, r.Tags, r.UniqueTags, r.Posts, r.Replies, r.Following, r.Followers, r.Friends, r.Bookmarks,
			}
		})
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	if err := insertBatches(conn, records.UserTags,
		"INSERT INTO user_tags (user_id, label, tagger) VALUES (?, ?, ?)", tagArgs); err != nil {
		return fmt.Errorf("failed to export user tags: %w", err)
	}

	return nil
}

func tagArgs(r *types.TagRecord) []any {
	return []any{r.Subject, r.Label, r.Tagger}
}

// nullable maps an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// insertBatches inserts rows in transactions of batchSize rows.
func insertBatches[T any](conn *sqlite.Conn, rows []T, query string, args func(T) []any) error {
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))

		if err := insertBatch(conn, rows[i:end], query, args); err != nil {
			return err
		}
	}

	return nil
}

func insertBatch[T any](conn *sqlite.Conn, rows []T, query string, args func(T) []any) (err error) {
	defer sqlitex.Save(conn)(&err)

	for _, row := range rows {
		if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args(row)}); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return nil
}

package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pubky/franky/internal/export/types"
)

// Files written by the exporter.
const (
	PostsFile    = "posts.csv"
	PostTagsFile = "post_tags.csv"
	UsersFile    = "users.csv"
	UserTagsFile = "user_tags.csv"
)

// Exporter handles exporting the cache to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes each record set to its own csv file, replacing previous exports.
func (e *Exporter) Export(records *types.Records) error {
	err := writeFile(e.outDir, PostsFile,
		[]string{
			"id", "author", "kind", "uri", "content", "indexed_at", "attachments", "mentioned",
			"replied", "reposted", "tags", "unique_tags", "replies", "reposts",
		},
		records.Posts, func(r *types.PostRecord) []string {
			return []string{
				r.ID, r.Author, r.Kind, r.URI, r.Content, itoa(r.IndexedAt), r.Attachments, r.Mentioned,
				r.Replied, r.Reposted, itoa(r.Tags), itoa(r.UniqueTags), itoa(r.Replies), itoa(r.Reposts),
			}
		})
	if err != nil {
		return fmt.Errorf("failed to export posts: %w", err)
	}

	if err := writeFile(e.outDir, PostTagsFile, []string{"post_id", "label", "tagger"}, records.PostTags, tagRow); err != nil {
		return fmt.Errorf("failed to export post tags: %w", err)
	}

	err = writeFile(e.outDir, UsersFile,
		[]string{
			"id", "tagged", "tags", "unique_tags", "posts", "replies", "following", "followers", "friends", "bookmarks",
		},
		records.Users, func(r *types.UserRecord) []string {
			return []string{
				r.ID, itoa(r.Tagged), itoa(r.Tags), itoa(r.UniqueTags), itoa(r.Posts), itoa(r.Replies),
				itoa(r.Following), itoa(r.Followers), itoa(r.Friends), itoa(r.Bookmarks),
			}
		})
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	if err := writeFile(e.outDir, UserTagsFile, []string{"user_id", "label", "tagger"}, records.UserTags, tagRow); err != nil {
		return fmt.Errorf("failed to export user tags: %w", err)
	}

	return nil
}

func tagRow(r *types.TagRecord) []string {
	return []string{r.Subject, r.Label, r.Tagger}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// writeFile writes a header and one line per record to a csv file.
func writeFile[T any](outDir, filename string, header []string, records []T, row func(T) []string) error {
	file, err := os.Create(filepath.Join(outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(row(record)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

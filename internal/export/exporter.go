package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	dbTypes "github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/export/csv"
	"github.com/pubky/franky/internal/export/sqlite"
	"github.com/pubky/franky/internal/export/types"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

const (
	// EngineVersion represents the version of the export engine.
	// This should be updated when making breaking changes to the export format.
	EngineVersion = "1.0.0"

	// ManifestFile describes the export next to the data files.
	ManifestFile = "export_manifest.json"
)

// SnapshotLoader reads the whole cache in one consistent pass.
type SnapshotLoader interface {
	Load(ctx context.Context) (*dbTypes.Snapshot, error)
}

// Manifest is written alongside every export.
type Manifest struct {
	EngineVersion string    `json:"engineVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	Formats       []Format  `json:"formats"`
	Posts         int       `json:"posts"`
	PostTags      int       `json:"postTags"`
	Users         int       `json:"users"`
	UserTags      int       `json:"userTags"`
}

// Exporter handles exporting the cache.
type Exporter struct {
	loader  SnapshotLoader
	outDir  string
	formats []Format
	logger  *zap.Logger
}

// New creates a new exporter instance. No formats means every supported format.
func New(loader SnapshotLoader, outDir string, logger *zap.Logger, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatSQLite, FormatCSV}
	}

	return &Exporter{
		loader:  loader,
		outDir:  outDir,
		formats: lo.Uniq(formats),
		logger:  logger.Named("export"),
	}
}

// ExportAll exports the cache in every configured format.
func (e *Exporter) ExportAll(ctx context.Context) (*Manifest, error) {
	for _, format := range e.formats {
		if format != FormatSQLite && format != FormatCSV {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	snapshot, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	records, err := Flatten(snapshot)
	if err != nil {
		return nil, err
	}

	for _, format := range e.formats {
		if err := e.export(format, records); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
		e.logger.Info("Wrote export", zap.String("format", string(format)), zap.String("dir", e.outDir))
	}

	manifest := &Manifest{
		EngineVersion: EngineVersion,
		ExportedAt:    time.Now().UTC(),
		Formats:       e.formats,
		Posts:         len(records.Posts),
		PostTags:      len(records.PostTags),
		Users:         len(records.Users),
		UserTags:      len(records.UserTags),
	}

	data, err := sonic.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, ManifestFile), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export manifest: %w", err)
	}

	return manifest, nil
}

// export writes records in the specified format.
func (e *Exporter) export(format Format, records *types.Records) error {
	switch format {
	case FormatSQLite:
		return sqlite.New(e.outDir).Export(records)
	case FormatCSV:
		return csv.New(e.outDir).Export(records)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Flatten converts a snapshot into export records.
// Posts with no details row are left out since there is nothing to show for them.
func Flatten(snapshot *dbTypes.Snapshot) (*types.Records, error) {
	countsByID := lo.KeyBy(snapshot.Counts, func(c *dbTypes.PostCounts) dbTypes.PostID { return c.ID })
	relByID := lo.KeyBy(snapshot.Relationships, func(r *dbTypes.PostRelationships) dbTypes.PostID { return r.ID })

	records := &types.Records{
		Posts:    make([]*types.PostRecord, 0, len(snapshot.Details)),
		PostTags: []*types.TagRecord{},
		Users:    make([]*types.UserRecord, 0, len(snapshot.UserCounts)),
		UserTags: []*types.TagRecord{},
	}

	for _, details := range snapshot.Details {
		attachments, err := sonic.MarshalString(lo.Ternary(details.Attachments == nil, []string{}, details.Attachments))
		if err != nil {
			return nil, fmt.Errorf("failed to encode attachments of %s: %w", details.ID, err)
		}

		record := &types.PostRecord{
			ID:          details.ID.String(),
			Author:      details.ID.Author(),
			Kind:        string(details.Kind),
			URI:         details.URI,
			Content:     details.Content,
			IndexedAt:   details.IndexedAt,
			Attachments: attachments,
			Mentioned:   "[]",
		}

		if counts, ok := countsByID[details.ID]; ok {
			record.Tags = counts.Tags
			record.UniqueTags = counts.UniqueTags
			record.Replies = counts.Replies
			record.Reposts = counts.Reposts
		}

		if rel, ok := relByID[details.ID]; ok {
			record.Replied = lo.FromPtr(rel.Replied)
			record.Reposted = lo.FromPtr(rel.Reposted)
			if record.Mentioned, err = sonic.MarshalString(lo.Ternary(rel.Mentioned == nil, []string{}, rel.Mentioned)); err != nil {
				return nil, fmt.Errorf("failed to encode mentions of %s: %w", details.ID, err)
			}
		}

		records.Posts = append(records.Posts, record)
	}

	for _, tags := range snapshot.Tags {
		records.PostTags = append(records.PostTags, flattenTags(tags.ID.String(), tags.Tags)...)
	}

	for _, counts := range snapshot.UserCounts {
		records.Users = append(records.Users, &types.UserRecord{
			ID:         counts.ID,
			Tagged:     counts.Tagged,
			Tags:       counts.Tags,
			UniqueTags: counts.UniqueTags,
			Posts:      counts.Posts,
			Replies:    counts.Replies,
			Following:  counts.Following,
			Followers:  counts.Followers,
			Friends:    counts.Friends,
			Bookmarks:  counts.Bookmarks,
		})
	}

	for _, tags := range snapshot.UserTags {
		records.UserTags = append(records.UserTags, flattenTags(tags.ID, tags.Tags)...)
	}

	return records, nil
}

func flattenTags(subject string, tags dbTypes.TagCollection) []*types.TagRecord {
	return lo.FlatMap(tags, func(entry dbTypes.TagEntry, _ int) []*types.TagRecord {
		return lo.Map(entry.Taggers, func(tagger string, _ int) *types.TagRecord {
			return &types.TagRecord{Subject: subject, Label: entry.Label, Tagger: tagger}
		})
	})
}

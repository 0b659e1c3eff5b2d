package service

import (
	"context"
	"fmt"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TagService handles tags applied to cached posts.
type TagService struct {
	db       *bun.DB
	tables   Tables
	observer *observer
	logger   *zap.Logger
}

// NewTag creates a new post tag service.
func NewTag(db *bun.DB, tables Tables, observers Observers, logger *zap.Logger) *TagService {
	logger = logger.Named("tag_service")

	return &TagService{
		db:       db,
		tables:   tables,
		observer: newObserver(observers, logger),
		logger:   logger,
	}
}

// Save applies a label to a post for the tagger. The post's tag collection, its tag
// counters and the tagger's counters are written in one transaction.
// Returns the updated collection projected for the tagger.
func (s *TagService) Save(ctx context.Context, postID types.PostID, label, taggerID string) (*types.PostTags, error) {
	label = types.NormalizeLabel(label)
	errCtx := map[string]any{"postId": postID.String(), "label": label, "taggerId": taggerID}
	logFields := []zap.Field{zap.String("postID", postID.String()), zap.String("label", label), zap.String("taggerID", taggerID)}

	if err := validateTagTarget(postID, taggerID); err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "save tag", err, errCtx, logFields...)
	}

	var saved *types.PostTags
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		id := postID.String()

		row, err := getOptional(ctx, tx, s.tables.Tags, id)
		if err != nil {
			return err
		}
		if row == nil {
			row = types.NewPostTags(postID)
		}

		if err := row.Tags.SaveTag(label, taggerID); err != nil {
			return err
		}
		if err := s.tables.Tags.Upsert(ctx, tx, row); err != nil {
			return err
		}

		counts, err := getOptional(ctx, tx, s.tables.Counts, id)
		if err != nil {
			return err
		}
		if counts == nil {
			counts = types.NewPostCounts(postID)
		}

		counts.SyncTags(row.Tags)
		if err := s.tables.Counts.Upsert(ctx, tx, counts); err != nil {
			return err
		}

		saved = row
		return adjustUserCounts(ctx, tx, s.tables.UserCounts, taggerID, types.UserCountsDelta{Tagged: 1})
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindSaveFailed, "save tag", err, errCtx, logFields...)
	}

	event := events.NewChangeEvent(events.KindPostTagged, postID.String(), taggerID)
	event.Label = label
	s.observer.committed(ctx, event, postID)

	s.logger.Debug("Saved tag", logFields...)

	saved.Tags = saved.Tags.ProjectFor(taggerID)
	return saved, nil
}

// Remove withdraws a label the tagger applied to a post. Labels left without
// taggers are dropped from the collection.
func (s *TagService) Remove(ctx context.Context, postID types.PostID, label, taggerID string) (*types.PostTags, error) {
	label = types.NormalizeLabel(label)
	errCtx := map[string]any{"postId": postID.String(), "label": label, "taggerId": taggerID}
	logFields := []zap.Field{zap.String("postID", postID.String()), zap.String("label", label), zap.String("taggerID", taggerID)}

	if err := validateTagTarget(postID, taggerID); err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindDeleteFailed, "remove tag", err, errCtx, logFields...)
	}

	var removed *types.PostTags
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		id := postID.String()

		row, err := getOptional(ctx, tx, s.tables.Tags, id)
		if err != nil {
			return err
		}
		if row == nil || len(row.Tags) == 0 {
			return types.ErrPostHasNoTags
		}

		if err := row.Tags.RemoveTag(label, taggerID); err != nil {
			return err
		}
		if err := s.tables.Tags.Upsert(ctx, tx, row); err != nil {
			return err
		}

		counts, err := getOptional(ctx, tx, s.tables.Counts, id)
		if err != nil {
			return err
		}
		if counts == nil {
			counts = types.NewPostCounts(postID)
		}

		counts.SyncTags(row.Tags)
		if err := s.tables.Counts.Upsert(ctx, tx, counts); err != nil {
			return err
		}

		removed = row
		return adjustUserCounts(ctx, tx, s.tables.UserCounts, taggerID, types.UserCountsDelta{Tagged: -1})
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindDeleteFailed, "remove tag", err, errCtx, logFields...)
	}

	event := events.NewChangeEvent(events.KindPostUntagged, postID.String(), taggerID)
	event.Label = label
	s.observer.committed(ctx, event, postID)

	s.logger.Debug("Removed tag", logFields...)

	removed.Tags = removed.Tags.ProjectFor(taggerID)
	return removed, nil
}

func validateTagTarget(postID types.PostID, taggerID string) error {
	if !postID.Valid() {
		return fmt.Errorf("%q: %w", postID, types.ErrInvalidPostID)
	}
	if taggerID == "" {
		return fmt.Errorf("empty tagger: %w", types.ErrInvalidUserID)
	}
	return nil
}

package service

import (
	"context"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserTagService handles tags applied to user profiles.
type UserTagService struct {
	db       *bun.DB
	tables   Tables
	observer *observer
	logger   *zap.Logger
}

// NewUserTag creates a new user tag service.
func NewUserTag(db *bun.DB, tables Tables, observers Observers, logger *zap.Logger) *UserTagService {
	logger = logger.Named("user_tag_service")

	return &UserTagService{
		db:       db,
		tables:   tables,
		observer: newObserver(observers, logger),
		logger:   logger,
	}
}

// Save applies a label to a user for the tagger. The tagged user's collection and
// counters and the tagger's counters are written in one transaction.
func (s *UserTagService) Save(ctx context.Context, userID, label, taggerID string) (*types.UserTags, error) {
	return s.update(ctx, userID, label, taggerID, true)
}

// Remove withdraws a label the tagger applied to a user.
func (s *UserTagService) Remove(ctx context.Context, userID, label, taggerID string) (*types.UserTags, error) {
	return s.update(ctx, userID, label, taggerID, false)
}

func (s *UserTagService) update(ctx context.Context, userID, label, taggerID string, save bool) (*types.UserTags, error) {
	label = types.NormalizeLabel(label)

	kind, op, delta, eventKind := types.ErrorKindSaveFailed, "save user tag", int64(1), events.KindUserTagged
	if !save {
		kind, op, delta, eventKind = types.ErrorKindDeleteFailed, "remove user tag", -1, events.KindUserUntagged
	}

	errCtx := map[string]any{"userId": userID, "label": label, "taggerId": taggerID}
	logFields := []zap.Field{zap.String("userID", userID), zap.String("label", label), zap.String("taggerID", taggerID)}

	if userID == "" || taggerID == "" {
		return nil, toDatabaseError(s.logger, kind, op, types.ErrInvalidUserID, errCtx, logFields...)
	}

	var updated *types.UserTags
	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		row, err := getOptional(ctx, tx, s.tables.UserTags, userID)
		if err != nil {
			return err
		}
		if row == nil {
			if !save {
				return types.ErrTagNotFound
			}
			row = &types.UserTags{ID: userID, Tags: types.TagCollection{}}
		}

		if save {
			err = row.Tags.SaveTag(label, taggerID)
		} else {
			err = row.Tags.RemoveTag(label, taggerID)
		}
		if err != nil {
			return err
		}

		if err := s.tables.UserTags.Upsert(ctx, tx, row); err != nil {
			return err
		}

		counts, err := getOptional(ctx, tx, s.tables.UserCounts, userID)
		if err != nil {
			return err
		}
		if counts == nil {
			counts = &types.UserCounts{ID: userID}
		}

		counts.SyncTags(row.Tags)
		if err := s.tables.UserCounts.Upsert(ctx, tx, counts); err != nil {
			return err
		}

		updated = row
		return adjustUserCounts(ctx, tx, s.tables.UserCounts, taggerID, types.UserCountsDelta{Tagged: delta})
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, kind, op, err, errCtx, logFields...)
	}

	event := events.NewChangeEvent(eventKind, userID, taggerID)
	event.Label = label
	s.observer.committed(ctx, event)

	s.logger.Debug("Updated user tags", append(logFields, zap.Bool("saved", save))...)

	updated.Tags = updated.Tags.ProjectFor(taggerID)
	return updated, nil
}

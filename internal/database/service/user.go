package service

import (
	"context"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserService handles reads of per-user data.
type UserService struct {
	db     *bun.DB
	tables Tables
	logger *zap.Logger
}

// NewUser creates a new user service.
func NewUser(db *bun.DB, tables Tables, logger *zap.Logger) *UserService {
	return &UserService{
		db:     db,
		tables: tables,
		logger: logger.Named("user_service"),
	}
}

// GetCounts returns a user's counters. Users with no activity get a zeroed row.
func (s *UserService) GetCounts(ctx context.Context, userID string) (*types.UserCounts, error) {
	errCtx := map[string]any{"userId": userID}
	if userID == "" {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, "get user counts", types.ErrInvalidUserID, errCtx)
	}

	counts, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.UserCounts, error) {
		return getOptional(ctx, s.db, s.tables.UserCounts, userID)
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, "get user counts", err, errCtx,
			zap.String("userID", userID))
	}

	if counts == nil {
		counts = &types.UserCounts{ID: userID}
	}
	return counts, nil
}

// GetTags returns the tags applied to a user projected for the viewer.
func (s *UserService) GetTags(ctx context.Context, userID, viewerID string) (*types.UserTags, error) {
	errCtx := map[string]any{"userId": userID}
	if userID == "" {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, "get user tags", types.ErrInvalidUserID, errCtx)
	}

	tags, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.UserTags, error) {
		return getOptional(ctx, s.db, s.tables.UserTags, userID)
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, "get user tags", err, errCtx,
			zap.String("userID", userID))
	}

	if tags == nil {
		return &types.UserTags{ID: userID, Tags: types.TagCollection{}}, nil
	}

	tags.Tags = tags.Tags.ProjectFor(viewerID)
	return tags, nil
}

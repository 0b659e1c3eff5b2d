package service

import (
	"context"

	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SnapshotService reads the whole cache for export.
type SnapshotService struct {
	db     *bun.DB
	tables Tables
	logger *zap.Logger
}

// NewSnapshot creates a new snapshot service.
func NewSnapshot(db *bun.DB, tables Tables, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		db:     db,
		tables: tables,
		logger: logger.Named("snapshot_service"),
	}
}

// Load reads every table in one transaction so the snapshot is consistent.
func (s *SnapshotService) Load(ctx context.Context) (*types.Snapshot, error) {
	var snapshot *types.Snapshot

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		var (
			next types.Snapshot
			err  error
		)

		if next.Details, err = s.tables.Details.All(ctx, tx); err != nil {
			return err
		}
		if next.Counts, err = s.tables.Counts.All(ctx, tx); err != nil {
			return err
		}
		if next.Relationships, err = s.tables.Relationships.All(ctx, tx); err != nil {
			return err
		}
		if next.Tags, err = s.tables.Tags.All(ctx, tx); err != nil {
			return err
		}
		if next.UserCounts, err = s.tables.UserCounts.All(ctx, tx); err != nil {
			return err
		}
		if next.UserTags, err = s.tables.UserTags.All(ctx, tx); err != nil {
			return err
		}

		snapshot = &next
		return nil
	})
	if err != nil {
		return nil, toDatabaseError(s.logger, types.ErrorKindQueryFailed, "load snapshot", err, nil)
	}

	s.logger.Debug("Loaded snapshot",
		zap.Int("posts", len(snapshot.Details)),
		zap.Int("users", len(snapshot.UserCounts)))

	return snapshot, nil
}

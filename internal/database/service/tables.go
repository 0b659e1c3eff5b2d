package service

import (
	"context"
	"errors"

	"github.com/pubky/franky/internal/cache"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Table is the row access the services need for one table.
type Table[T any] interface {
	Get(ctx context.Context, idb bun.IDB, id string) (*T, error)
	FindByIDs(ctx context.Context, idb bun.IDB, ids []string) ([]*T, error)
	All(ctx context.Context, idb bun.IDB) ([]*T, error)
	Insert(ctx context.Context, idb bun.IDB, row *T) error
	Update(ctx context.Context, idb bun.IDB, row *T) error
	Upsert(ctx context.Context, idb bun.IDB, row *T) error
	Delete(ctx context.Context, idb bun.IDB, id string) (bool, error)
}

// RelationshipTable adds reverse lookups from a target URI to the posts pointing at it.
type RelationshipTable interface {
	Table[types.PostRelationships]
	ReplyIDs(ctx context.Context, idb bun.IDB, parentURI string) ([]string, error)
	RepostIDs(ctx context.Context, idb bun.IDB, originalURI string) ([]string, error)
}

// Tables is the set of tables the services write through.
type Tables struct {
	Details       Table[types.PostDetails]
	Counts        Table[types.PostCounts]
	Relationships RelationshipTable
	Tags          Table[types.PostTags]
	UserCounts    Table[types.UserCounts]
	UserTags      Table[types.UserTags]
}

// Observers are told about changes once their transaction has committed.
// Both fields are optional.
type Observers struct {
	Views    *cache.ViewCache
	Notifier events.Notifier
}

// observer fans a committed change out to the view cache and the change feed.
type observer struct {
	views    *cache.ViewCache
	notifier events.Notifier
	logger   *zap.Logger
}

func newObserver(observers Observers, logger *zap.Logger) *observer {
	notifier := observers.Notifier
	if notifier == nil {
		notifier = events.NopNotifier{}
	}

	return &observer{
		views:    observers.Views,
		notifier: notifier,
		logger:   logger,
	}
}

// committed invalidates the changed posts and publishes the event.
// Publishing is best effort since the write already succeeded.
func (o *observer) committed(ctx context.Context, event *events.ChangeEvent, posts ...types.PostID) {
	o.views.Invalidate(ctx, posts...)

	if err := o.notifier.Notify(ctx, event); err != nil {
		o.logger.Warn("Failed to publish change event",
			zap.String("kind", string(event.Kind)),
			zap.String("subject", event.Subject),
			zap.Error(err))
	}
}

// getOptional fetches a row, returning nil without error when it does not exist.
func getOptional[T any](ctx context.Context, idb bun.IDB, table Table[T], id string) (*T, error) {
	row, err := table.Get(ctx, idb, id)
	if errors.Is(err, types.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// adjustUserCounts applies a delta to a user's counters, creating the row on first use.
func adjustUserCounts(
	ctx context.Context, idb bun.IDB, table Table[types.UserCounts], userID string, delta types.UserCountsDelta,
) error {
	if userID == "" || delta.IsZero() {
		return nil
	}

	counts, err := getOptional(ctx, idb, table, userID)
	if err != nil {
		return err
	}
	if counts == nil {
		counts = &types.UserCounts{ID: userID}
	}

	counts.Apply(delta)
	return table.Upsert(ctx, idb, counts)
}

// adjustPostCounts updates a post's counters in place.
// Returns false without error when the post has no counts row.
func adjustPostCounts(
	ctx context.Context, idb bun.IDB, table Table[types.PostCounts], id types.PostID, apply func(*types.PostCounts),
) (bool, error) {
	counts, err := getOptional(ctx, idb, table, id.String())
	if err != nil || counts == nil {
		return false, err
	}

	apply(counts)
	if err := table.Update(ctx, idb, counts); err != nil {
		return false, err
	}
	return true, nil
}

// toDatabaseError converts a failed operation into a DatabaseError.
// Precondition failures are expected and only logged at debug level.
func toDatabaseError(
	logger *zap.Logger, kind types.ErrorKind, op string, err error, context map[string]any, fields ...zap.Field,
) error {
	var dbErr *types.DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}

	fields = append(fields, zap.Error(err))
	if types.IsPrecondition(err) {
		logger.Debug("Rejected "+op, fields...)
	} else {
		logger.Error("Failed to "+op, fields...)
	}

	return types.NewDatabaseError(kind, "failed to "+op, err, context)
}

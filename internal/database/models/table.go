package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TableModel handles row operations for one table keyed by an "id" column.
// Every method takes the bun.IDB to run against so callers can compose several
// tables inside a single transaction.
type TableModel[T any] struct {
	name   string
	logger *zap.Logger
}

// NewTable creates a table model. The name is used for logging only; the
// table itself comes from the row type's bun tags.
func NewTable[T any](name string, logger *zap.Logger) *TableModel[T] {
	return &TableModel[T]{
		name:   name,
		logger: logger.Named("db_" + name),
	}
}

// Name returns the table name.
func (r *TableModel[T]) Name() string {
	return r.name
}

// Get retrieves one row by ID. Returns types.ErrRowNotFound if the row does not exist.
func (r *TableModel[T]) Get(ctx context.Context, idb bun.IDB, id string) (*T, error) {
	row := new(T)

	err := idb.NewSelect().
		Model(row).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", r.name, id, types.ErrRowNotFound)
		}
		return nil, fmt.Errorf("failed to get %s row %s: %w", r.name, id, err)
	}

	return row, nil
}

// FindByIDs retrieves all rows whose ID is in the list. Missing IDs are skipped.
func (r *TableModel[T]) FindByIDs(ctx context.Context, idb bun.IDB, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}

	var rows []*T
	err := idb.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s rows: %w", r.name, err)
	}

	return rows, nil
}

// All retrieves every row of the table ordered by ID.
func (r *TableModel[T]) All(ctx context.Context, idb bun.IDB) ([]*T, error) {
	var rows []*T
	err := idb.NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", r.name, err)
	}

	return rows, nil
}

// Insert adds a new row. Fails if a row with the same ID exists.
func (r *TableModel[T]) Insert(ctx context.Context, idb bun.IDB, row *T) error {
	if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert %s row: %w", r.name, err)
	}
	return nil
}

// Update overwrites an existing row. Returns types.ErrRowNotFound if nothing was updated.
func (r *TableModel[T]) Update(ctx context.Context, idb bun.IDB, row *T) error {
	result, err := idb.NewUpdate().
		Model(row).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s row: %w", r.name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", r.name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", r.name, types.ErrRowNotFound)
	}

	return nil
}

// Upsert inserts a row or replaces every column of the existing one.
func (r *TableModel[T]) Upsert(ctx context.Context, idb bun.IDB, row *T) error {
	_, err := idb.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert %s row: %w", r.name, err)
	}
	return nil
}

// Delete removes a row by ID. Deleting a missing row is not an error.
func (r *TableModel[T]) Delete(ctx context.Context, idb bun.IDB, id string) (bool, error) {
	result, err := idb.NewDelete().
		Model((*T)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s row %s: %w", r.name, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for %s: %w", r.name, err)
	}

	r.logger.Debug("Deleted row",
		zap.String("id", id),
		zap.Int64("affectedRows", affected))

	return affected > 0, nil
}

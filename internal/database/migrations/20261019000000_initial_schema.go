package migrations

import (
	"context"
	"fmt"

	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []struct {
			model any
			name  string
		}{
			{(*types.PostDetails)(nil), "post_details"},
			{(*types.PostCounts)(nil), "post_counts"},
			{(*types.PostRelationships)(nil), "post_relationships"},
			{(*types.PostTags)(nil), "post_tags"},
			{(*types.UserCounts)(nil), "user_counts"},
			{(*types.UserTags)(nil), "user_tags"},
		}

		for _, table := range tables {
			_, err := db.NewCreateTable().
				Model(table.model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []any{
			(*types.UserTags)(nil),
			(*types.UserCounts)(nil),
			(*types.PostTags)(nil),
			(*types.PostRelationships)(nil),
			(*types.PostCounts)(nil),
			(*types.PostDetails)(nil),
		}

		for _, model := range tables {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
		}

		return nil
	})
}

package migrations

import (
	"context"
	"fmt"

	"github.com/pubky/franky/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Reply and repost lookups go through the relationship targets
		indexes := []struct {
			name   string
			column string
		}{
			{"idx_post_relationships_replied", "replied"},
			{"idx_post_relationships_reposted", "reposted"},
		}

		for _, index := range indexes {
			_, err := db.NewCreateIndex().
				Model((*types.PostRelationships)(nil)).
				Index(index.name).
				Column(index.column).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", index.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, name := range []string{"idx_post_relationships_replied", "idx_post_relationships_reposted"} {
			if _, err := db.NewDropIndex().Index(name).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop index %s: %w", name, err)
			}
		}

		return nil
	})
}

package commands

import (
	"context"

	"github.com/pubky/franky/internal/database/migrations"
	"github.com/pubky/franky/internal/setup"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns the schema management commands.
func MigrationCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Initialize migration tables",
			Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, _ *zap.Logger) error {
				return migrator.Init(ctx)
			}),
		},
		{
			Name:  "migrate",
			Usage: "Run pending migrations",
			Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
				if err := migrator.Init(ctx); err != nil {
					return err
				}

				group, err := migrator.Migrate(ctx)
				if err != nil {
					return err
				}

				if group.IsZero() {
					logger.Info("No new migrations to run (database is up to date)")
					return nil
				}

				logger.Info("Successfully migrated", zap.String("group", group.String()))
				return nil
			}),
		},
		{
			Name:  "rollback",
			Usage: "Rollback the last migration group",
			Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
				group, err := migrator.Rollback(ctx)
				if err != nil {
					return err
				}

				if group.IsZero() {
					logger.Info("No groups to roll back")
					return nil
				}

				logger.Info("Successfully rolled back", zap.String("group", group.String()))
				return nil
			}),
		},
		{
			Name:  "status",
			Usage: "Show migration status",
			Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
				ms, err := migrator.MigrationsWithStatus(ctx)
				if err != nil {
					return err
				}

				logger.Info("Migration status",
					zap.String("migrations", ms.String()),
					zap.String("unapplied", ms.Unapplied().String()),
					zap.String("last_group", ms.LastGroup().String()),
				)
				return nil
			}),
		},
	}
}

func withMigrator(fn func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error) cli.ActionFunc {
	return withApp(false, func(ctx context.Context, _ *cli.Command, app *setup.App) error {
		return fn(ctx, migrate.NewMigrator(app.DB.DB(), migrations.Migrations), app.Logger)
	})
}

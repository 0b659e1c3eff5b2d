package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pubky/franky/internal/events"
	"github.com/pubky/franky/internal/export"
	"github.com/pubky/franky/internal/setup"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var ErrChangeFeedDisabled = errors.New("change feed is not configured")

// ExportCommand dumps the cache to files.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the cache to sqlite and csv files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Base output directory for export files",
			},
			&cli.StringSliceFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Formats to write (sqlite, csv), defaults to all",
			},
		},
		Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
			// Create timestamped output directory
			timestamp := time.Now().UTC().Format("2006-01-02_150405")
			outDir := filepath.Join(c.String("output"), timestamp)

			formats := lo.Map(c.StringSlice("format"), func(f string, _ int) export.Format {
				return export.Format(f)
			})

			manifest, err := export.New(app.DB.Service().Snapshot(), outDir, app.Logger, formats...).ExportAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}

			app.Logger.Info("Export completed",
				zap.String("dir", outDir),
				zap.Int("posts", manifest.Posts),
				zap.Int("users", manifest.Users))
			return printJSON(manifest)
		}),
	}
}

// EventsCommand prints the recent change feed.
func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Show recent change events",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Number of events to show",
			},
		},
		Action: withApp(false, func(ctx context.Context, c *cli.Command, app *setup.App) error {
			feed, ok := app.Notifier.(*events.RedisNotifier)
			if !ok {
				return ErrChangeFeedDisabled
			}

			history, err := feed.History(ctx, int64(c.Int("limit")))
			if err != nil {
				return err
			}
			return printJSON(history)
		}),
	}
}

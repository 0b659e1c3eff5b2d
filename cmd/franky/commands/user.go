package commands

import (
	"context"

	"github.com/pubky/franky/internal/setup"
	"github.com/urfave/cli/v3"
)

// UserCommands returns the user counter and user tagging commands.
func UserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "counts",
			Usage:     "Show a user's counters",
			ArgsUsage: "USER_ID",
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrUserIDRequired)
				if err != nil {
					return err
				}

				counts, err := app.DB.Service().User().GetCounts(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(counts)
			}),
		},
		{
			Name:      "tags",
			Usage:     "Show the tags applied to a user",
			ArgsUsage: "USER_ID",
			Flags:     []cli.Flag{ViewerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrUserIDRequired)
				if err != nil {
					return err
				}

				tags, err := app.DB.Service().User().GetTags(ctx, args[0], c.String(ViewerFlag.Name))
				if err != nil {
					return err
				}
				return printJSON(tags)
			}),
		},
		{
			Name:      "tag",
			Usage:     "Tag a user",
			ArgsUsage: "USER_ID LABEL",
			Flags:     []cli.Flag{taggerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				userID, label, tagger, err := tagArgs(c, ErrUserIDRequired)
				if err != nil {
					return err
				}

				tags, err := app.DB.Service().UserTag().Save(ctx, userID, label, tagger)
				if err != nil {
					return err
				}
				return printJSON(tags)
			}),
		},
		{
			Name:      "untag",
			Usage:     "Withdraw a tag from a user",
			ArgsUsage: "USER_ID LABEL",
			Flags:     []cli.Flag{taggerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				userID, label, tagger, err := tagArgs(c, ErrUserIDRequired)
				if err != nil {
					return err
				}

				tags, err := app.DB.Service().UserTag().Remove(ctx, userID, label, tagger)
				if err != nil {
					return err
				}
				return printJSON(tags)
			}),
		},
	}
}

package commands

import (
	"context"

	"github.com/pubky/franky/internal/database/service"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/setup"
	"github.com/urfave/cli/v3"
)

// PostCommands returns the local post service commands.
func PostCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "create",
			Usage:     "Add a post to the cache",
			ArgsUsage: "POST_ID",
			Description: `Create a post with the composite id "<author>:<postId>":
  post create alice:0001 --content "hello"`,
			Flags:  postFlags(),
			Action: withApp(true, handleCreate),
		},
		{
			Name:      "reply",
			Usage:     "Add a reply to a cached post",
			ArgsUsage: "PARENT_ID POST_ID",
			Flags:     postFlags(),
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired, ErrPostIDRequired)
				if err != nil {
					return err
				}

				view, err := app.DB.Service().Post().Reply(ctx, types.PostID(args[0]), postParams(c, args[1]))
				if err != nil {
					return err
				}
				return printJSON(view)
			}),
		},
		{
			Name:      "repost",
			Usage:     "Repost a cached post",
			ArgsUsage: "ORIGINAL_ID POST_ID",
			Flags:     postFlags(),
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired, ErrPostIDRequired)
				if err != nil {
					return err
				}

				view, err := app.DB.Service().Post().Repost(ctx, types.PostID(args[0]), postParams(c, args[1]))
				if err != nil {
					return err
				}
				return printJSON(view)
			}),
		},
		{
			Name:      "delete",
			Usage:     "Remove a post from the cache",
			ArgsUsage: "POST_ID",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "deleter",
					Usage: "User charged for the deletion (defaults to the author)",
				},
			},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}
				return app.DB.Service().Post().Delete(ctx, types.PostID(args[0]), c.String("deleter"))
			}),
		},
		{
			Name:      "show",
			Usage:     "Show cached posts",
			ArgsUsage: "POST_ID...",
			Flags:     []cli.Flag{ViewerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}

				ids := make([]types.PostID, len(args))
				for i, arg := range args {
					ids[i] = types.PostID(arg)
				}

				views, err := app.DB.Service().Post().GetMany(ctx, ids, c.String(ViewerFlag.Name))
				if err != nil {
					return err
				}
				return printJSON(views)
			}),
		},
		{
			Name:      "replies",
			Usage:     "List cached replies to a post",
			ArgsUsage: "POST_ID",
			Flags:     []cli.Flag{ViewerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}

				views, err := app.DB.Service().Post().ListReplies(ctx, types.PostID(args[0]), c.String(ViewerFlag.Name))
				if err != nil {
					return err
				}
				return printJSON(views)
			}),
		},
		{
			Name:      "reposts",
			Usage:     "List cached reposts of a post",
			ArgsUsage: "POST_ID",
			Flags:     []cli.Flag{ViewerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				args, err := requireArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}

				views, err := app.DB.Service().Post().ListReposts(ctx, types.PostID(args[0]), c.String(ViewerFlag.Name))
				if err != nil {
					return err
				}
				return printJSON(views)
			}),
		},
	}
}

func handleCreate(ctx context.Context, c *cli.Command, app *setup.App) error {
	args, err := requireArgs(c, ErrPostIDRequired)
	if err != nil {
		return err
	}

	view, err := app.DB.Service().Post().Create(ctx, postParams(c, args[0]))
	if err != nil {
		return err
	}
	return printJSON(view)
}

func postFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "content",
			Aliases: []string{"c"},
			Usage:   "Post content",
		},
		&cli.StringFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Value:   string(types.PostKindShort),
			Usage:   "Post kind (short or long)",
		},
		&cli.StringSliceFlag{
			Name:  "attachment",
			Usage: "Attachment URI, repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "mention",
			Usage: "Mentioned user, repeatable",
		},
	}
}

func postParams(c *cli.Command, postID string) service.CreatePostParams {
	return service.CreatePostParams{
		PostID:      types.PostID(postID),
		Content:     c.String("content"),
		Kind:        types.PostKind(c.String("kind")),
		Attachments: c.StringSlice("attachment"),
		Mentioned:   c.StringSlice("mention"),
	}
}

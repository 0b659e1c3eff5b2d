package commands

import (
	"context"
	"errors"

	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/setup"
	"github.com/urfave/cli/v3"
)

var ErrTaggerRequired = errors.New("--tagger flag required")

var taggerFlag = &cli.StringFlag{
	Name:    "tagger",
	Aliases: []string{"t"},
	Usage:   "User applying or withdrawing the tag",
}

// TagCommands returns the post tagging commands.
func TagCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "add",
			Usage:     "Tag a cached post",
			ArgsUsage: "POST_ID LABEL",
			Flags:     []cli.Flag{taggerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				postID, label, tagger, err := tagArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}

				tags, err := app.DB.Service().Tag().Save(ctx, types.PostID(postID), label, tagger)
				if err != nil {
					return err
				}
				return printJSON(tags)
			}),
		},
		{
			Name:      "remove",
			Usage:     "Withdraw a tag from a cached post",
			ArgsUsage: "POST_ID LABEL",
			Flags:     []cli.Flag{taggerFlag},
			Action: withApp(true, func(ctx context.Context, c *cli.Command, app *setup.App) error {
				postID, label, tagger, err := tagArgs(c, ErrPostIDRequired)
				if err != nil {
					return err
				}

				tags, err := app.DB.Service().Tag().Remove(ctx, types.PostID(postID), label, tagger)
				if err != nil {
					return err
				}
				return printJSON(tags)
			}),
		},
	}
}

func tagArgs(c *cli.Command, subjectErr error) (subject, label, tagger string, err error) {
	args, err := requireArgs(c, subjectErr, ErrLabelRequired)
	if err != nil {
		return "", "", "", err
	}

	tagger = c.String(taggerFlag.Name)
	if tagger == "" {
		return "", "", "", ErrTaggerRequired
	}

	return args[0], args[1], tagger, nil
}

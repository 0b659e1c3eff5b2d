package main

import (
	"context"
	"log"
	"os"

	"github.com/pubky/franky/cmd/franky/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "franky",
		Usage: "Local-first post and tag cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  commands.ConfigFlag,
				Usage: "Path to a config file (searches the default locations when empty)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:     "db",
				Usage:    "Database management",
				Commands: commands.MigrationCommands(),
			},
			{
				Name:     "post",
				Usage:    "Manage cached posts",
				Commands: commands.PostCommands(),
			},
			{
				Name:     "tag",
				Usage:    "Manage post tags",
				Commands: commands.TagCommands(),
			},
			{
				Name:     "user",
				Usage:    "Inspect and tag users",
				Commands: commands.UserCommands(),
			},
			commands.ExportCommand(),
			commands.EventsCommand(),
		},
	}

	return app.Run(context.Background(), os.Args)
}

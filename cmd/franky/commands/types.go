package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pubky/franky/internal/setup"
	"github.com/urfave/cli/v3"
)

var (
	ErrPostIDRequired = errors.New("POST_ID argument required")
	ErrUserIDRequired = errors.New("USER_ID argument required")
	ErrLabelRequired  = errors.New("LABEL argument required")
)

// ConfigFlag is the global flag pointing at an explicit config file.
const ConfigFlag = "config"

// ViewerFlag projects tag relationships for the given user.
var ViewerFlag = &cli.StringFlag{
	Name:  "viewer",
	Usage: "User to project tag relationships for",
}

// withApp initializes the application for the duration of an action.
func withApp(autoMigrate bool, fn func(ctx context.Context, c *cli.Command, app *setup.App) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		app, err := setup.InitializeApp(ctx, c.String(ConfigFlag), autoMigrate)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer app.Cleanup()

		return fn(ctx, c, app)
	}
}

// printJSON writes a value to stdout as indented JSON.
func printJSON(v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

// requireArgs returns the first n positional arguments or the error for the first missing one.
func requireArgs(c *cli.Command, errs ...error) ([]string, error) {
	args := c.Args().Slice()
	for i, err := range errs {
		if i >= len(args) || args[i] == "" {
			return nil, err
		}
	}
	return args, nil
}

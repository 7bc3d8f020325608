package main

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/config"
	"github.com/urfave/cli/v3"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"lint"},
		Usage:     "Validate a configuration file",
		ArgsUsage: "[config file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "tree",
				Aliases: []string{"t"},
				Usage:   "Show the validated configuration as a tree",
			},
		},
		Action: validateAction,
	}
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		if cmd.Args().Len() < 1 {
			return cli.Exit("config file path required (use the --config flag, or provide the config file as positional argument)", 1)
		}
		configPath = cmd.Args().Get(0)
	}

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return cli.Exit(err, 1)
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Configuration file %s is valid\n", configPath)
	if cmd.Bool("tree") {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cfg)
	}
	return nil
}

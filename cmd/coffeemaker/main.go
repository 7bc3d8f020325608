package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "coffeemaker",
		Version: Version,
		Usage:   "Run and inspect the coffee machine controller",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
				Sources: cli.EnvVars("COFFEEMAKER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (trace, debug, info, warn, error); overrides the config file",
			},
			&cli.BoolFlag{
				Name:  "simulate",
				Usage: "Use simulated devices instead of the device files",
			},
		},
		Commands: []*cli.Command{
			daemonCommand(),
			displayCommand(),
			describeCommand(),
			validateCommand(),
			versionCommand(),
		},
	}
}

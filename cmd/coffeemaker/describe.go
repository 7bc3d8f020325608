package main

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/fancy"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/powder"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/water"
	"github.com/urfave/cli/v3"
)

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "Print the state machines of the subsystems",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer,
				fancy.MachinesTree("Coffeemaker state machines", powder.Definition, water.Definition))
			return nil
		},
	}
}

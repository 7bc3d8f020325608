package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/display"
	"github.com/urfave/cli/v3"
)

func displayCommand() *cli.Command {
	return &cli.Command{
		Name:      "display",
		Usage:     "Show a text on the machine's display and exit",
		ArgsUsage: "<text>",
		Action:    displayAction,
	}
}

func displayAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("text to display is required", 1)
	}
	text := strings.Join(cmd.Args().Slice(), " ")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(err, 1)
	}
	handler, err := setupLogger(cfg)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var io device.IO = device.NewFileIO(cfg.DeviceRoot)
	mem := device.NewMemory()
	if cfg.Simulation.Enabled {
		io = mem
	}

	result, err := display.ShowText(ctx, display.Config{
		IO:           io,
		RetryBackoff: cfg.Timing.RetryBackoff.AsDuration(),
	}, text, handler)
	if err != nil {
		return cli.Exit(fmt.Errorf("display failed: %w", err), 1)
	}
	if !result.OK() {
		return cli.Exit(fmt.Errorf("display refused text: %s", result.Text), 1)
	}
	if cfg.Simulation.Enabled {
		fmt.Fprintf(cmd.Root().Writer, "display: %s\n", mem.Value(device.Display))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/daemon"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/maincontroller"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/urfave/cli/v3"
)

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run the coffee machine until interrupted",
		Description: "Starts every subsystem under the main controller. SIGINT or SIGTERM " +
			"tear the machine down in order; SIGHUP reloads the configuration file.",
		Action: daemonAction,
	}
}

func daemonAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(err, 1)
	}
	handler, err := setupLogger(cfg)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger := slog.New(handler)

	var runnables []supervisor.Runnable
	devices := daemon.FileDevices(cfg.DeviceRoot)
	if cfg.Simulation.Enabled {
		sim := daemon.NewSimulator(daemon.SimulatorConfig{
			GrindTime: cfg.Simulation.GrindTime.AsDuration(),
			HeatTime:  cfg.Simulation.HeatTime.AsDuration(),
			PowerOn:   true,
		}, handler)
		devices = sim.Devices()
		runnables = append(runnables, sim)
	}

	// Reloads read the file again but keep the devices chosen at start.
	load := func() (maincontroller.Config, error) {
		next, err := loadConfig(cmd)
		if err != nil {
			return maincontroller.Config{}, err
		}
		return daemon.ControllerConfig(next, devices, logger), nil
	}

	opts := []daemon.Option{
		daemon.WithContext(ctx),
		daemon.WithLogHandler(handler),
	}
	if cfg.LockMemory {
		opts = append(opts, daemon.WithMemoryLock(activity.LockMemory))
	}
	runner, err := daemon.NewRunner(load, opts...)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create daemon: %w", err), 1)
	}
	runnables = append(runnables, runner)

	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(handler),
		supervisor.WithRunnables(runnables...),
	)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create supervisor: %w", err), 1)
	}
	if err := super.Run(); err != nil {
		return cli.Exit(fmt.Errorf("failed to run daemon: %w", err), 1)
	}

	logger.Info("Coffee machine shutdown complete")
	return nil
}

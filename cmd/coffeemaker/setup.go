package main

import (
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/config"
	"github.com/atlanticdynamic/coffeemaker/internal/logging"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the configuration named by --config and applies the
// command line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.NewConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if level := cmd.String("log-level"); level != "" {
		if cfg.LogLevel, err = config.LogLevelFromString(level); err != nil {
			return nil, err
		}
	}
	if cmd.Bool("simulate") {
		cfg.Simulation.Enabled = true
	}
	return cfg, nil
}

// setupLogger installs the configured handler as the default logger.
func setupLogger(cfg *config.Config) (slog.Handler, error) {
	handler, err := logging.NewHandler(string(cfg.LogFormat), string(cfg.LogLevel), cfg.LogOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(slog.New(handler))
	return handler, nil
}

// Package config loads the daemon configuration from TOML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/interpolation"
	"github.com/pelletier/go-toml/v2"
)

// DefaultDeviceRoot is where the device files live on the machine.
const DefaultDeviceRoot = "/dev"

// Config is the daemon configuration.
type Config struct {
	LogLevel   LogLevel  `toml:"log_level"`
	LogFormat  LogFormat `toml:"log_format"`
	LogOutput  string    `toml:"log_output"  env_interpolation:"yes"`
	LockMemory bool      `toml:"lock_memory"`
	DeviceRoot string    `toml:"device_root" env_interpolation:"yes"`

	Timing     Timing     `toml:"timing"`
	Service    Service    `toml:"service"    env_interpolation:"yes"`
	Simulation Simulation `toml:"simulation"`
}

// Timing holds the intervals shared by the subsystems.
type Timing struct {
	WaitTimeout  Duration `toml:"wait_timeout"`
	RetryBackoff Duration `toml:"retry_backoff"`
	InitDelay    Duration `toml:"init_delay"`
	PollInterval Duration `toml:"poll_interval"`
	BrewTime     Duration `toml:"brew_time"`
}

// Service configures the MQTT bridge of the service interface. Without a
// broker the service interface only logs.
type Service struct {
	MQTTBroker  string `toml:"mqtt_broker"  env_interpolation:"yes"`
	ClientID    string `toml:"client_id"    env_interpolation:"yes"`
	TopicPrefix string `toml:"topic_prefix" env_interpolation:"yes"`
}

// Simulation replaces the device files with in-memory devices.
type Simulation struct {
	Enabled   bool     `toml:"enabled"`
	GrindTime Duration `toml:"grind_time"`
	HeatTime  Duration `toml:"heat_time"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:   LogLevelInfo,
		LogFormat:  LogFormatText,
		LockMemory: true,
		DeviceRoot: DefaultDeviceRoot,
		Timing: Timing{
			WaitTimeout:  FromDuration(100 * time.Millisecond),
			RetryBackoff: FromDuration(time.Second),
			InitDelay:    FromDuration(time.Second),
			PollInterval: FromDuration(100 * time.Millisecond),
			BrewTime:     FromDuration(5 * time.Second),
		},
		Service: Service{
			ClientID:    "coffeemaker",
			TopicPrefix: "coffeemaker",
		},
		Simulation: Simulation{
			GrindTime: FromDuration(2 * time.Second),
			HeatTime:  FromDuration(3 * time.Second),
		},
	}
}

// NewConfig loads and validates the TOML file at filePath. An empty path
// yields the defaults.
func NewConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	return NewConfigFromBytes(data)
}

// NewConfigFromBytes loads configuration from TOML bytes
func NewConfigFromBytes(data []byte) (*Config, error) {
	return NewConfigFromReader(bytes.NewReader(data))
}

// NewConfigFromReader loads configuration from an io.Reader providing TOML
// data. Settings missing from the input keep their defaults; unknown keys are
// rejected. Paths and service settings may reference environment variables
// as ${NAME} or ${NAME:default}.
func NewConfigFromReader(reader io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := interpolation.InterpolateStruct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

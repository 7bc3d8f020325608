package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/full.toml
var fullTOML []byte

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, DefaultDeviceRoot, cfg.DeviceRoot)
	assert.True(t, cfg.LockMemory)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing.WaitTimeout.AsDuration())
	assert.False(t, cfg.Simulation.Enabled)
}

func TestNewConfigFromBytes(t *testing.T) {
	t.Parallel()

	t.Run("full file", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfigFromBytes(fullTOML)
		require.NoError(t, err)

		assert.Equal(t, LogLevelDebug, cfg.LogLevel)
		assert.Equal(t, LogFormatJSON, cfg.LogFormat)
		assert.Equal(t, "stdout", cfg.LogOutput)
		assert.False(t, cfg.LockMemory)
		assert.Equal(t, "/tmp/coffeemaker/dev", cfg.DeviceRoot)
		assert.Equal(t, Timing{
			WaitTimeout:  FromDuration(50 * time.Millisecond),
			RetryBackoff: FromDuration(2 * time.Second),
			InitDelay:    0,
			PollInterval: FromDuration(250 * time.Millisecond),
			BrewTime:     FromDuration(4 * time.Second),
		}, cfg.Timing)
		assert.Equal(t, Service{
			MQTTBroker:  "tcp://broker.local:1883",
			ClientID:    "kitchen",
			TopicPrefix: "kitchen/coffee",
		}, cfg.Service)
		assert.True(t, cfg.Simulation.Enabled)
		assert.Equal(t, 1500*time.Millisecond, cfg.Simulation.HeatTime.AsDuration())
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfigFromBytes([]byte("log_level = \"warn\"\n[timing]\nbrew_time = \"10s\"\n"))
		require.NoError(t, err)
		assert.Equal(t, LogLevelWarn, cfg.LogLevel)
		assert.Equal(t, 10*time.Second, cfg.Timing.BrewTime.AsDuration())
		assert.Equal(t, Default().Timing.WaitTimeout, cfg.Timing.WaitTimeout)
		assert.Equal(t, Default().Service, cfg.Service)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfigFromBytes([]byte("espresso = true\n"))
		require.ErrorIs(t, err, ErrFailedToLoadConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfigFromBytes([]byte("[timing]\nwait_timeout = \"soon\"\n"))
		require.ErrorIs(t, err, ErrFailedToLoadConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfigFromBytes([]byte("log_level = \"loud\"\n"))
		require.ErrorIs(t, err, ErrFailedToValidateConfig)
		require.ErrorIs(t, err, ErrInvalidLogLevel)
	})
}

func TestEnvironmentInterpolation(t *testing.T) {
	t.Setenv("COFFEEMAKER_TEST_BROKER", "broker.kitchen")
	cfg, err := NewConfigFromBytes([]byte(`
device_root = "${COFFEEMAKER_TEST_DEVICES:/run/coffeemaker}"
[service]
mqtt_broker = "tcp://${COFFEEMAKER_TEST_BROKER}:1883"
`))
	require.NoError(t, err)
	assert.Equal(t, "/run/coffeemaker", cfg.DeviceRoot)
	assert.Equal(t, "tcp://broker.kitchen:1883", cfg.Service.MQTTBroker)

	_, err = NewConfigFromBytes([]byte(`device_root = "${COFFEEMAKER_TEST_UNSET_ROOT}"`))
	require.ErrorIs(t, err, ErrFailedToLoadConfig)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfig("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "coffeemaker.toml")
		require.NoError(t, os.WriteFile(path, fullTOML, 0o600))
		cfg, err := NewConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "kitchen", cfg.Service.ClientID)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.ErrorIs(t, err, ErrFailedToLoadConfig)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		errs   []error
	}{
		{"log format", func(c *Config) { c.LogFormat = "xml" }, []error{ErrInvalidLogFormat}},
		{"device root", func(c *Config) { c.DeviceRoot = "" }, []error{ErrMissingDeviceRoot}},
		{"device root simulated", func(c *Config) { c.DeviceRoot = ""; c.Simulation.Enabled = true }, nil},
		{"zero wait", func(c *Config) { c.Timing.WaitTimeout = 0 }, []error{ErrInvalidDuration}},
		{"negative init delay", func(c *Config) { c.Timing.InitDelay = -1 }, []error{ErrInvalidDuration}},
		{"broker scheme", func(c *Config) { c.Service.MQTTBroker = "http://broker:1883" }, []error{ErrInvalidBrokerURL}},
		{"broker host", func(c *Config) { c.Service.MQTTBroker = "tcp://" }, []error{ErrInvalidBrokerURL}},
		{"wildcard prefix", func(c *Config) { c.Service.TopicPrefix = "coffee/#" }, []error{ErrInvalidTopicPrefix}},
		{
			"several problems",
			func(c *Config) { c.LogLevel = "x"; c.Timing.BrewTime = 0; c.Service.TopicPrefix = "" },
			[]error{ErrInvalidLogLevel, ErrInvalidDuration, ErrInvalidTopicPrefix},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if len(tt.errs) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.errs {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfigFromBytes(fullTOML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), "wait_timeout")
	assert.Contains(t, buf.String(), "50ms")

	again, err := NewConfigFromBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLogLevelFromString(t *testing.T) {
	t.Parallel()
	l, err := LogLevelFromString("warning")
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, l)

	_, err = LogLevelFromString("chatty")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestString(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfigFromBytes(fullTOML)
	require.NoError(t, err)
	out := cfg.String()
	for _, want := range []string{"Coffeemaker Config", "Simulated", "tcp://broker.local:1883", "Brew time: 4s"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, Default().String(), "no MQTT broker")
}

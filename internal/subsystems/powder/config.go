// Package powder implements the coffee grinder: the powder dispenser with its
// state machine, the fill state monitor watching the bean sensor and the
// motor controller driving the grinder motor.
package powder

import (
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/device"
)

// Config holds the grinder's collaborators and timing.
type Config struct {
	IO device.IO

	// WaitTimeout bounds each wait of the dispenser loop; the current
	// state's do-action runs after every wait.
	WaitTimeout time.Duration

	// PollInterval is how often the fill state monitor reads the bean sensor.
	PollInterval time.Duration

	// InitDelay is how long initialization takes.
	InitDelay time.Duration

	// RetryBackoff is the pause after a failed wait.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.IO == nil {
		c.IO = device.NewFileIO(device.DefaultRoot)
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 100 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.InitDelay < 0 {
		c.InitDelay = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

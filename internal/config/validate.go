package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var brokerSchemes = map[string]bool{"tcp": true, "ssl": true, "tls": true, "ws": true, "wss": true, "mqtt": true}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
	}
	if !c.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat))
	}
	if c.DeviceRoot == "" && !c.Simulation.Enabled {
		errs = append(errs, ErrMissingDeviceRoot)
	}

	for name, d := range map[string]Duration{
		"timing.wait_timeout":  c.Timing.WaitTimeout,
		"timing.retry_backoff": c.Timing.RetryBackoff,
		"timing.poll_interval": c.Timing.PollInterval,
		"timing.brew_time":     c.Timing.BrewTime,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidDuration, name, d))
		}
	}
	if c.Timing.InitDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: timing.init_delay must not be negative", ErrInvalidDuration))
	}
	if c.Simulation.Enabled && (c.Simulation.GrindTime <= 0 || c.Simulation.HeatTime <= 0) {
		errs = append(errs, fmt.Errorf("%w: simulation times must be positive", ErrInvalidDuration))
	}

	if err := c.Service.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s Service) validate() error {
	var errs []error
	if s.MQTTBroker != "" {
		u, err := url.Parse(s.MQTTBroker)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidBrokerURL, err))
		case !brokerSchemes[u.Scheme] || u.Host == "":
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidBrokerURL, s.MQTTBroker))
		}
	}
	if s.TopicPrefix == "" || strings.ContainsAny(s.TopicPrefix, "+#") {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTopicPrefix, s.TopicPrefix))
	}
	return errors.Join(errs...)
}

package config

import "errors"

var (
	ErrFailedToLoadConfig     = errors.New("failed to load config")
	ErrFailedToValidateConfig = errors.New("failed to validate config")

	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrMissingDeviceRoot  = errors.New("device root is required unless simulating")
	ErrInvalidBrokerURL   = errors.New("invalid MQTT broker URL")
	ErrInvalidTopicPrefix = errors.New("invalid MQTT topic prefix")
)

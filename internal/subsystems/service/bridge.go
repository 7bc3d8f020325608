package service

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Bridge connects the service interface to a remote service console.
type Bridge interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handle func(topic string, payload []byte)) error
	Close() error
}

// MQTTConfig configures the MQTT bridge.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// MQTTBridge is a Bridge to an MQTT broker.
type MQTTBridge struct {
	client  mqtt.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ Bridge = (*MQTTBridge)(nil)

// DialMQTT connects to the broker.
func DialMQTT(cfg MQTTConfig) (*MQTTBridge, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().WithGroup("service.MQTTBridge")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "broker", cfg.Broker, "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connecting to %s timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}
	logger.Info("Connected to broker", "broker", cfg.Broker)

	return &MQTTBridge{client: client, timeout: cfg.ConnectTimeout, logger: logger}, nil
}

func (b *MQTTBridge) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(b.timeout) {
		return fmt.Errorf("publishing to %s timed out", topic)
	}
	return token.Error()
}

func (b *MQTTBridge) Subscribe(topic string, handle func(topic string, payload []byte)) error {
	token := b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handle(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(b.timeout) {
		return fmt.Errorf("subscribing to %s timed out", topic)
	}
	return token.Error()
}

// Close disconnects, allowing pending work a short quiesce period.
func (b *MQTTBridge) Close() error {
	b.client.Disconnect(250)
	return nil
}

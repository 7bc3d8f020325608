// Package service implements the service interface. It publishes every status
// report and result it receives and turns remote commands into messages to
// the addressed activity.
//
// Topics:
//
//	<prefix>/status/<sender>     published, JSON body of the received message
//	<prefix>/command/<activity>  subscribed, {"command": "init", "text": "..."}
package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
	"github.com/segmentio/encoding/json"
)

// DefaultTopicPrefix prefixes every topic.
const DefaultTopicPrefix = "coffeemaker"

// Config holds the service interface's collaborators. Without Dial the
// service interface only logs what it receives.
type Config struct {
	Dial         func() (Bridge, error)
	TopicPrefix  string
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

type serviceInterface struct {
	cfg    Config
	bridge Bridge
}

// Descriptor returns the service interface's descriptor.
func Descriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.ServiceInterfaceID,
		Name:     protocol.ServiceInterfaceName,
		Behavior: &serviceInterface{cfg: cfg.withDefaults()},
	}
}

// StatusTopic is where messages from sender are published.
func StatusTopic(prefix, sender string) string {
	return prefix + "/status/" + sender
}

// CommandTopic is where commands for name are received.
func CommandTopic(prefix, name string) string {
	return prefix + "/command/" + name
}

// SetUp connects the bridge. A bridge that cannot be reached is logged and
// the service interface carries on without it.
func (s *serviceInterface) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	if s.cfg.Dial == nil {
		return nil
	}

	bridge, err := s.cfg.Dial()
	if err != nil {
		a.Logger().Warn("Service bridge unavailable", "error", err)
		return nil
	}
	s.bridge = bridge

	topic := CommandTopic(s.cfg.TopicPrefix, "+")
	if err := bridge.Subscribe(topic, func(topic string, payload []byte) {
		s.forward(a, topic, payload)
	}); err != nil {
		a.Logger().Warn("Subscribing to commands failed", "topic", topic, "error", err)
	}
	return nil
}

func (s *serviceInterface) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		a.Logger().Debug("Going to receive message...")
		delivery, err := activity.ReceiveMessage(a, protocol.Catalog)
		if a.Context().Err() != nil {
			return nil
		}
		if err != nil {
			a.Logger().Warn("Receiving failed", "error", err)
			if errors.Is(err, errz.ErrIOFailure) {
				a.Sleep(s.cfg.RetryBackoff)
			}
			continue
		}

		a.Logger().Info("Message received", "sender", delivery.Sender.Name, "type", delivery.Message.MessageType())
		s.publish(a, delivery)
	}
}

func (s *serviceInterface) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	if s.bridge != nil {
		if err := s.bridge.Close(); err != nil {
			a.Logger().Warn("Closing service bridge failed", "error", err)
		}
	}
}

func (s *serviceInterface) publish(a *activity.Activity, delivery activity.Delivery) {
	if s.bridge == nil {
		return
	}
	body, err := json.Marshal(delivery.Message)
	if err != nil {
		a.Logger().Warn("Encoding status failed", "error", err)
		return
	}
	topic := StatusTopic(s.cfg.TopicPrefix, delivery.Sender.Name)
	if err := s.bridge.Publish(topic, body); err != nil {
		a.Logger().Warn("Publishing status failed", "topic", topic, "error", err)
	}
}

// RemoteCommand is the body of a command topic message. Command is a code
// name such as "init" or its number.
type RemoteCommand struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// ParseCommand decodes a command topic payload.
func ParseCommand(payload []byte) (protocol.Command, error) {
	var rc RemoteCommand
	if err := json.Unmarshal(payload, &rc); err != nil {
		return protocol.Command{}, fmt.Errorf("%w: %w", errz.ErrUnknownMessageType, err)
	}
	if code, ok := protocol.ParseCode(rc.Command); ok {
		return protocol.Command{Code: code, Text: rc.Text}, nil
	}
	if n, err := strconv.Atoi(rc.Command); err == nil {
		return protocol.Command{Code: protocol.Code(n), Text: rc.Text}, nil
	}
	return protocol.Command{}, fmt.Errorf("%w: command %q", errz.ErrUnknownMessageType, rc.Command)
}

// forward runs on the bridge's goroutine; it only sends, which is safe from
// any goroutine.
func (s *serviceInterface) forward(a *activity.Activity, topic string, payload []byte) {
	name := topic[strings.LastIndexByte(topic, '/')+1:]
	if err := envelope.ValidateName(name); err != nil {
		a.Logger().Warn("Ignoring command", "topic", topic, "error", err)
		return
	}
	cmd, err := ParseCommand(payload)
	if err != nil {
		a.Logger().Warn("Ignoring command", "topic", topic, "error", err)
		return
	}
	a.Logger().Info("Remote command", "to", name, "command", cmd.Code)
	if err := activity.SendMessage(a.Context(), a, activity.Address(name), cmd, channel.High); err != nil {
		a.Logger().Warn("Forwarding command failed", "to", name, "error", err)
	}
}

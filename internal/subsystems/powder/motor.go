package powder

import (
	"errors"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// Motor levels.
const (
	MotorRunning  = 50
	MotorStopped  = 0
	maxMotorLevel = 99
)

type motor struct {
	cfg Config
}

// MotorDescriptor returns the motor controller's descriptor.
func MotorDescriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.MotorControllerID,
		Name:     protocol.MotorControllerName,
		Behavior: &motor{cfg: cfg.withDefaults()},
	}
}

func (m *motor) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	m.set(a, MotorStopped)
	return nil
}

func (m *motor) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		delivery, err := activity.ReceiveMessage(a, protocol.Catalog)
		if a.Context().Err() != nil {
			return nil
		}
		if err != nil {
			a.Logger().Warn("Receiving failed", "error", err)
			if errors.Is(err, errz.ErrIOFailure) {
				a.Sleep(m.cfg.RetryBackoff)
			}
			continue
		}

		cmd, ok := delivery.Message.(protocol.Command)
		if !ok {
			continue
		}
		a.Logger().Info("Message received", "sender", delivery.Sender.Name, "command", cmd.Code)
		switch cmd.Code {
		case protocol.MotorStartCommand:
			m.set(a, MotorRunning)
		case protocol.MotorStopCommand:
			m.set(a, MotorStopped)
		}
	}
}

func (m *motor) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	m.set(a, MotorStopped)
}

func (m *motor) set(a *activity.Activity, level int) {
	level = min(max(level, 0), maxMotorLevel)
	if err := device.WriteInt(m.cfg.IO, device.CoffeeGrinderMotor, level, device.Replace, false); err != nil {
		a.Logger().Error("Setting motor level failed", "level", level, "error", err)
	}
}

// Package water implements the water supply: a pump and a heater controlled
// by a state machine that reacts to the water, flow and temperature sensors.
package water

import (
	"errors"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
	"github.com/atlanticdynamic/coffeemaker/internal/statemachine"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// MinTemperature is the temperature in degrees Celsius at which the heater
// switches off.
const MinTemperature = 60

// Config holds the water supply's collaborators and timing.
type Config struct {
	IO           device.IO
	WaitTimeout  time.Duration
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.IO == nil {
		c.IO = device.NewFileIO(device.DefaultRoot)
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 100 * time.Millisecond
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

type supply struct {
	cfg     Config
	a       *activity.Activity
	machine *statemachine.Machine[*supply]
	client  activity.Descriptor

	deliver    bool
	delivering bool
	fault      bool
	hasWater   bool
	reported   bool
}

// Descriptor returns the water supply's descriptor.
func Descriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.WaterSupplyID,
		Name:     protocol.WaterSupplyName,
		Behavior: &supply{cfg: cfg.withDefaults(), client: protocol.MainController},
	}
}

func (s *supply) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	s.a = a
	s.machine = statemachine.New(Definition, s,
		statemachine.WithLogger(a.Logger()),
		statemachine.WithTransitionHook(s.report),
	)
	s.machine.SetUp()
	return nil
}

func (s *supply) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		delivery, err := activity.WaitForMessage(a, protocol.Catalog, s.cfg.WaitTimeout)
		if a.Context().Err() != nil {
			return nil
		}
		switch {
		case errz.IsRecoverable(err) || errors.Is(err, errz.ErrIOFailure):
			a.Logger().Error("Waiting for event failed", "error", err)
			a.Sleep(s.cfg.RetryBackoff)
			continue
		case err != nil:
			a.Logger().Warn("Ignoring message", "error", err)
		case delivery.Message != nil:
			s.handle(delivery)
		}
		s.watchWater()
		s.machine.Step()
	}
}

func (s *supply) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	s.allOff()
}

func (s *supply) handle(delivery activity.Delivery) {
	cmd, ok := delivery.Message.(protocol.Command)
	if !ok {
		s.a.Logger().Warn("Unexpected message", "sender", delivery.Sender.Name)
		return
	}
	if !delivery.Sender.IsUnknown() {
		s.client = activity.Address(delivery.Sender.Name)
	}

	switch cmd.Code {
	case protocol.InitCommand:
		s.fault = false
		s.machine.ProcessEvent(EventInit)
	case protocol.OffCommand:
		s.deliver = false
		s.machine.ProcessEvent(EventSwitchOff)
	case protocol.WaterStartCommand:
		switch {
		case s.machine.Is(Off) || s.machine.Is(Failed):
			s.reply(protocol.Result{Code: protocol.NOKResult, Text: "not ready: " + s.machine.CurrentName()})
		case !s.readWater():
			s.reply(protocol.Result{Code: protocol.NOKResult, Text: "No water"})
		default:
			s.deliver = true
		}
	case protocol.WaterStopCommand, protocol.AbortCommand:
		s.deliver = false
	default:
		s.a.Logger().Warn("Unknown command", "code", cmd.Code)
	}
}

// watchWater notifies the client when the water tank runs dry or is refilled.
func (s *supply) watchWater() {
	hasWater := s.readWater()
	if s.reported && hasWater == s.hasWater {
		return
	}
	s.hasWater = hasWater
	s.reported = true
	if hasWater {
		s.reply(protocol.Notification{Code: protocol.WaterAvailableNotification, Text: "Water available"})
	} else {
		s.reply(protocol.Notification{Code: protocol.NoWaterNotification, Text: "No water"})
	}
}

func (s *supply) reply(msg message.Message) {
	if err := activity.SendMessage(s.a.Context(), s.a, s.client, msg, channel.Medium); err != nil {
		s.a.Logger().Warn("Failed to notify client", "client", s.client.Name, "error", err)
	}
}

// report publishes every state change to the client and the service
// interface.
func (s *supply) report(_, to statemachine.StateID, _ statemachine.Event) {
	status := protocol.Status{Subsystem: protocol.WaterSupplyName, State: Definition.StateName(to)}
	for _, dest := range []activity.Descriptor{s.client, protocol.ServiceInterface} {
		if err := activity.SendMessage(s.a.Context(), s.a, dest, status, channel.Low); err != nil {
			s.a.Logger().Debug("Status not delivered", "to", dest.Name, "error", err)
		}
	}
}

func (s *supply) sensor(endpoint string) bool {
	v, err := device.ReadBool(s.cfg.IO, endpoint)
	if err != nil {
		s.a.Logger().Warn("Reading sensor failed", "sensor", endpoint, "error", err)
	}
	return v
}

func (s *supply) readWater() bool { return s.sensor(device.WaterSensor) }
func (s *supply) readFlow() bool  { return s.sensor(device.WaterFlowSensor) }

func (s *supply) hot() bool {
	temp, err := s.cfg.IO.Read(device.WaterTemperatureSensor)
	if err != nil {
		s.a.Logger().Warn("Reading temperature failed", "error", err)
		return false
	}
	return temp >= MinTemperature
}

func (s *supply) control(endpoint string, on bool) bool {
	level := 0
	if on {
		level = 1
	}
	if err := device.WriteInt(s.cfg.IO, endpoint, level, device.Replace, false); err != nil {
		s.a.Logger().Error("Device control failed", "device", endpoint, "on", on, "error", err)
		return false
	}
	s.a.Logger().Info("Device switched", "device", endpoint, "on", on)
	return true
}

func (s *supply) allOff() {
	s.control(device.WaterPump, false)
	s.control(device.WaterHeater, false)
}

func (s *supply) enterOff() {
	s.allOff()
	if s.delivering {
		s.delivering = false
		s.reply(protocol.Result{Code: protocol.NOKResult, Text: "switched off"})
	}
}

func (s *supply) enterStandby() {
	s.allOff()
	if !s.delivering {
		return
	}
	s.delivering = false
	if s.deliver {
		// interrupted by the sensors, not by the client
		s.deliver = false
		s.reply(protocol.Result{Code: protocol.NOKResult, Text: "No water"})
		return
	}
	s.reply(protocol.Result{Code: protocol.OKResult, Text: "water delivered"})
}

func (s *supply) doStandby() statemachine.Event {
	if s.deliver && s.readWater() {
		return EventSupply
	}
	return statemachine.NoEvent
}

func (s *supply) enterPumpOn() {
	s.delivering = true
	if !s.control(device.WaterPump, true) {
		s.fault = true
	}
}

func (s *supply) doPumpOn() statemachine.Event {
	switch {
	case s.fault:
		return EventFault
	case !s.deliver || !s.readWater():
		return EventInterrupted
	case s.readFlow() && !s.hot():
		return EventFlowing
	}
	return statemachine.NoEvent
}

func (s *supply) enterHeaterOn() {
	if !s.control(device.WaterHeater, true) {
		s.fault = true
	}
}

func (s *supply) doHeaterOn() statemachine.Event {
	switch {
	case s.fault:
		return EventFault
	case !s.deliver || !s.readWater():
		return EventInterrupted
	case !s.readFlow() || s.hot():
		return EventHeated
	}
	return statemachine.NoEvent
}

func (s *supply) exitHeaterOn() {
	if !s.control(device.WaterHeater, false) {
		s.fault = true
	}
}

func (s *supply) enterFailed() {
	s.allOff()
	s.delivering = false
	s.deliver = false
	s.reply(protocol.Result{Code: protocol.NOKResult, Text: "water supply failure"})
}

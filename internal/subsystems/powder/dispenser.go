package powder

import (
	"errors"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
	"github.com/atlanticdynamic/coffeemaker/internal/statemachine"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

var completed = protocol.Result{Code: protocol.OKResult, Text: "grinding complete"}

// dispenser owns the grinder state machine. All fields belong to the
// dispenser activity's goroutine.
type dispenser struct {
	cfg     Config
	a       *activity.Activity
	machine *statemachine.Machine[*dispenser]

	monitor *activity.Activity
	motor   *activity.Activity

	hasBeans bool
	// client receives results and bean notifications.
	client activity.Descriptor
	// outcome is reported to client when supplying ends.
	outcome protocol.Result
}

// Descriptor returns the dispenser's descriptor. Its fill state monitor and
// motor controller are spawned as children.
func Descriptor(cfg Config) activity.Descriptor {
	d := &dispenser{cfg: cfg.withDefaults(), client: protocol.MainController, outcome: completed}
	return activity.Descriptor{
		ID:       protocol.CoffeePowderDispenserID,
		Name:     protocol.CoffeePowderDispenserName,
		Behavior: d,
	}
}

func (d *dispenser) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	d.a = a
	d.machine = statemachine.New(Definition, d,
		statemachine.WithLogger(a.Logger()),
		statemachine.WithTransitionHook(d.report),
	)
	d.machine.SetUp()

	hasBeans, err := device.ReadBool(d.cfg.IO, device.CoffeeBeansSensor)
	if err != nil {
		a.Logger().Warn("Reading bean sensor failed", "error", err)
	}
	d.hasBeans = hasBeans

	if d.monitor, err = a.Spawn(MonitorDescriptor(d.cfg), channel.Blocking); err != nil {
		return err
	}
	if d.motor, err = a.Spawn(MotorDescriptor(d.cfg), channel.Blocking); err != nil {
		return err
	}
	return nil
}

func (d *dispenser) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		delivery, err := activity.WaitForMessage(a, protocol.Catalog, d.cfg.WaitTimeout)
		if a.Context().Err() != nil {
			return nil
		}
		switch {
		case errz.IsRecoverable(err) || errors.Is(err, errz.ErrIOFailure):
			a.Logger().Error("Waiting for event failed", "error", err)
			a.Sleep(d.cfg.RetryBackoff)
			continue
		case err != nil:
			a.Logger().Warn("Ignoring message", "error", err)
		case delivery.Message != nil:
			d.handle(delivery)
		}
		d.machine.Step()
	}
}

func (d *dispenser) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	for _, child := range []*activity.Activity{d.monitor, d.motor} {
		if child == nil {
			continue
		}
		if err := child.Destroy(); err != nil {
			a.Logger().Warn("Failed to destroy child", "child", child.Name(), "error", err)
		}
	}
}

func (d *dispenser) handle(delivery activity.Delivery) {
	switch msg := delivery.Message.(type) {
	case protocol.Command:
		d.handleCommand(msg, delivery)
	case protocol.Notification:
		d.handleNotification(msg)
	default:
		d.a.Logger().Warn("Unexpected message", "sender", delivery.Sender.Name, "type", msg.MessageType())
	}
}

func (d *dispenser) handleCommand(cmd protocol.Command, delivery activity.Delivery) {
	switch cmd.Code {
	case protocol.InitCommand:
		d.remember(delivery)
		d.machine.ProcessEvent(EventInit)
	case protocol.OffCommand:
		d.outcome = protocol.Result{Code: protocol.NOKResult, Text: "switched off"}
		d.machine.ProcessEvent(EventSwitchOff)
	case protocol.SupplyStartCommand:
		d.remember(delivery)
		if !d.hasBeans {
			d.reply(protocol.Result{Code: protocol.NOKResult, Text: "No beans"})
			return
		}
		if !d.machine.ProcessEvent(EventStartSupplying) {
			d.reply(protocol.Result{Code: protocol.NOKResult, Text: "not ready: " + d.machine.CurrentName()})
		}
	case protocol.SupplyStopCommand, protocol.AbortCommand:
		d.outcome = protocol.Result{Code: protocol.NOKResult, Text: "stopped"}
		d.machine.ProcessEvent(EventStop)
	default:
		d.a.Logger().Warn("Unknown command", "code", cmd.Code)
	}
	d.outcome = completed
}

func (d *dispenser) handleNotification(n protocol.Notification) {
	switch n.Code {
	case protocol.NoBeansNotification:
		d.hasBeans = false
		d.outcome = protocol.Result{Code: protocol.NOKResult, Text: "No beans"}
		d.machine.ProcessEvent(EventNoBeans)
		d.outcome = completed
		d.reply(protocol.Notification{Code: protocol.NoBeansNotification, Text: "No beans"})
	case protocol.BeansAvailableNotification:
		d.hasBeans = true
		d.machine.ProcessEvent(EventBeansAvailable)
		d.reply(protocol.Notification{Code: protocol.BeansAvailableNotification, Text: "Beans available"})
	}
}

func (d *dispenser) remember(delivery activity.Delivery) {
	if !delivery.Sender.IsUnknown() {
		d.client = activity.Address(delivery.Sender.Name)
	}
}

func (d *dispenser) reply(msg message.Message) {
	if err := activity.SendMessage(d.a.Context(), d.a, d.client, msg, channel.Medium); err != nil {
		d.a.Logger().Warn("Failed to notify client", "client", d.client.Name, "error", err)
	}
}

func (d *dispenser) tellMotor(code protocol.Code) {
	cmd := protocol.Command{Code: code}
	if err := activity.SendMessage(d.a.Context(), d.a, protocol.MotorController, cmd, channel.Medium); err != nil {
		d.a.Logger().Warn("Failed to command motor", "command", code, "error", err)
	}
}

// report publishes every state change to the client and the service
// interface.
func (d *dispenser) report(_, to statemachine.StateID, _ statemachine.Event) {
	status := protocol.Status{Subsystem: protocol.CoffeePowderDispenserName, State: Definition.StateName(to)}
	for _, dest := range []activity.Descriptor{d.client, protocol.ServiceInterface} {
		if err := activity.SendMessage(d.a.Context(), d.a, dest, status, channel.Low); err != nil {
			d.a.Logger().Debug("Status not delivered", "to", dest.Name, "error", err)
		}
	}
}

func (d *dispenser) enterSwitchedOff() {
	d.a.Logger().Info("Entered SwitchedOff State...")
}

func (d *dispenser) enterInitializing() {
	d.tellMotor(protocol.MotorStopCommand)
}

func (d *dispenser) doInitializing() statemachine.Event {
	if d.cfg.InitDelay > 0 && !d.a.Sleep(d.cfg.InitDelay) {
		return statemachine.NoEvent
	}
	return EventInitialized
}

func (d *dispenser) enterSupplying() {
	d.tellMotor(protocol.MotorStartCommand)
}

func (d *dispenser) doSupplying() statemachine.Event {
	enough, err := device.ReadBool(d.cfg.IO, device.CoffeePowderDispenser)
	if err != nil {
		d.a.Logger().Warn("Reading powder sensor failed", "error", err)
		return statemachine.NoEvent
	}
	if enough {
		return EventSupplyingFinished
	}
	return statemachine.NoEvent
}

func (d *dispenser) exitSupplying() {
	d.tellMotor(protocol.MotorStopCommand)
	d.reply(d.outcome)
}

// Package ui implements the user interface: it watches the power and milk
// switches and the product buttons, orders products from the main controller
// and keeps the display up to date.
package ui

import (
	"errors"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/display"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// Switch bits.
const (
	PowerSwitch        = 1 << 0
	MilkSelectorSwitch = 1 << 1
)

// EventOpener opens the event device at endpoint.
type EventOpener func(endpoint string) (device.EventSource, error)

// Config holds the user interface's collaborators.
type Config struct {
	IO           device.IO
	OpenEvents   EventOpener
	Display      display.Config
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.IO == nil {
		c.IO = device.NewFileIO(device.DefaultRoot)
	}
	if c.OpenEvents == nil {
		c.OpenEvents = FileEvents(device.DefaultRoot)
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

// FileEvents opens event devices below root.
func FileEvents(root string) EventOpener {
	return func(endpoint string) (device.EventSource, error) {
		return device.OpenEventDevice(root+"/"+endpoint, nil)
	}
}

type userInterface struct {
	cfg     Config
	a       *activity.Activity
	display *activity.Activity

	buttons  device.EventSource
	switches device.EventSource

	previousSwitches int
	view             protocol.ChangeView
}

// Descriptor returns the user interface's descriptor. The display is spawned
// as its child.
func Descriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:   protocol.UserInterfaceID,
		Name: protocol.UserInterfaceName,
		Behavior: &userInterface{
			cfg: cfg.withDefaults(),
			view: protocol.ChangeView{
				MachineState: protocol.MachineOff,
				Coffee:       true,
				Water:        true,
				Milk:         true,
			},
		},
	}
}

func (u *userInterface) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	u.a = a

	var err error
	if u.display, err = a.Spawn(display.Descriptor(u.cfg.Display), channel.Blocking); err != nil {
		return err
	}
	if u.buttons, err = u.cfg.OpenEvents(device.ButtonsEvent); err != nil {
		return err
	}
	if u.switches, err = u.cfg.OpenEvents(device.SwitchesEvent); err != nil {
		return err
	}
	if err := a.AddSource(u.buttons); err != nil {
		return err
	}
	return a.AddSource(u.switches)
}

func (u *userInterface) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")

	a.Logger().Info("Checking initial switch states...")
	states, err := u.cfg.IO.Read(device.Switches)
	if err != nil {
		a.Logger().Warn("Reading switches failed", "error", err)
	}
	u.processSwitches(states)
	if states != 0 {
		u.notifyDisplay()
	}

	for {
		delivery, err := activity.WaitForMessage(a, protocol.Catalog, activity.Forever)
		if a.Context().Err() != nil {
			return nil
		}
		switch {
		case errz.IsRecoverable(err) || errors.Is(err, errz.ErrIOFailure):
			a.Logger().Error("Waiting for event failed", "error", err)
			a.Sleep(u.cfg.RetryBackoff)
		case err != nil:
			a.Logger().Warn("Ignoring message", "error", err)
		case delivery.Source == u.buttons:
			u.onButton()
		case delivery.Source == u.switches:
			u.onSwitches()
		case delivery.Message != nil:
			u.handle(delivery)
		}
	}
}

func (u *userInterface) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
	for _, src := range []device.EventSource{u.buttons, u.switches} {
		if src != nil {
			_ = src.Close()
		}
	}
	if u.display != nil {
		if err := u.display.Destroy(); err != nil {
			a.Logger().Warn("Failed to destroy display", "error", err)
		}
	}
}

func (u *userInterface) onButton() {
	index, err := u.buttons.ReadEvent()
	if err != nil {
		u.a.Logger().Warn("Reading button failed", "error", err)
		return
	}
	product := index + 1
	if product < 1 || product > protocol.MaxProducts {
		u.a.Logger().Warn("No product at index", "index", index)
		return
	}
	u.view.ProductIndex = product
	u.send(protocol.MainController, protocol.ProductRequest{Product: product, WithMilk: u.view.WithMilk})
	u.notifyDisplay()
}

func (u *userInterface) onSwitches() {
	states, err := u.switches.ReadEvent()
	if err != nil {
		u.a.Logger().Warn("Reading switches failed", "error", err)
		return
	}
	u.processSwitches(states)
	u.notifyDisplay()
}

// processSwitches reacts to the switches that changed since the last reading.
func (u *userInterface) processSwitches(states int) {
	changes := states ^ u.previousSwitches
	if changes&PowerSwitch != 0 {
		if states&PowerSwitch != 0 {
			u.send(protocol.MainController, protocol.Command{Code: protocol.InitCommand})
			u.view.PowerOn = true
		} else {
			u.send(protocol.MainController, protocol.Command{Code: protocol.OffCommand})
			u.view.PowerOn = false
		}
	}
	if changes&MilkSelectorSwitch != 0 {
		u.view.WithMilk = states&MilkSelectorSwitch != 0
	}
	u.previousSwitches = states
}

func (u *userInterface) handle(delivery activity.Delivery) {
	switch msg := delivery.Message.(type) {
	case protocol.Result:
		if delivery.Sender.Name == protocol.DisplayName {
			u.a.Logger().Debug("Display result received", "ok", msg.OK())
			return
		}
		u.a.Logger().Info("Result received", "sender", delivery.Sender.Name, "code", msg.Code, "text", msg.Text)
	case protocol.MachineStateChanged:
		u.view.MachineState = msg.State
		if msg.State != protocol.MachineProducing {
			u.view.ProductIndex = 0
		}
		u.notifyDisplay()
	case protocol.AvailabilityChanged:
		switch msg.Ingredient {
		case protocol.Coffee:
			u.view.Coffee = msg.Available
		case protocol.Water:
			u.view.Water = msg.Available
		case protocol.Milk:
			u.view.Milk = msg.Available
		}
		u.notifyDisplay()
	default:
		u.a.Logger().Warn("Unexpected message", "sender", delivery.Sender.Name)
	}
}

func (u *userInterface) notifyDisplay() {
	u.a.Logger().Info("Notifying display...")
	u.send(protocol.Display, u.view)
}

func (u *userInterface) send(to activity.Descriptor, msg message.Message) {
	if err := activity.SendMessage(u.a.Context(), u.a, to, msg, channel.Medium); err != nil {
		u.a.Logger().Warn("Send failed", "to", to.Name, "error", err)
	}
}

package powder

import (
	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/protocol"
)

// monitor watches the bean sensor and tells the dispenser whenever beans run
// out or are refilled.
type monitor struct {
	cfg      Config
	reported bool
	hasBeans bool
}

// MonitorDescriptor returns the fill state monitor's descriptor. The monitor
// only sends, so it has no inbox.
func MonitorDescriptor(cfg Config) activity.Descriptor {
	return activity.Descriptor{
		ID:       protocol.FillStateMonitorID,
		Name:     protocol.FillStateMonitorName,
		Behavior: &monitor{cfg: cfg.withDefaults()},
		NoInbox:  true,
	}
}

func (m *monitor) SetUp(a *activity.Activity) error {
	a.Logger().Info("Setting up...")
	hasBeans, err := device.ReadBool(m.cfg.IO, device.CoffeeBeansSensor)
	if err != nil {
		a.Logger().Warn("Reading bean sensor failed", "error", err)
		return nil
	}
	m.hasBeans = hasBeans
	m.reported = true
	return nil
}

func (m *monitor) Run(a *activity.Activity) error {
	a.Logger().Info("Running...")
	for {
		m.check(a)
		if !a.Sleep(m.cfg.PollInterval) {
			return nil
		}
	}
}

func (m *monitor) TearDown(a *activity.Activity) {
	a.Logger().Info("Tearing down...")
}

func (m *monitor) check(a *activity.Activity) {
	hasBeans, err := device.ReadBool(m.cfg.IO, device.CoffeeBeansSensor)
	if err != nil {
		a.Logger().Warn("Reading bean sensor failed", "error", err)
		return
	}
	if m.reported && hasBeans == m.hasBeans {
		return
	}

	a.Logger().Info("Beans state changed", "hasBeans", hasBeans)
	n := protocol.Notification{Code: protocol.NoBeansNotification, Text: "No beans"}
	if hasBeans {
		n = protocol.Notification{Code: protocol.BeansAvailableNotification, Text: "Beans available"}
	}
	if err := activity.SendMessage(a.Context(), a, protocol.CoffeePowderDispenser, n, channel.High); err != nil {
		a.Logger().Warn("Failed to notify dispenser", "error", err)
		return
	}
	m.reported = true
	m.hasBeans = hasBeans
}

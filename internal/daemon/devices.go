package daemon

import (
	"log/slog"

	"github.com/atlanticdynamic/coffeemaker/internal/config"
	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/display"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/maincontroller"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/powder"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/service"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/ui"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/water"
)

// Devices are what the subsystems use to reach the hardware.
type Devices struct {
	IO         device.IO
	OpenEvents ui.EventOpener
}

// FileDevices uses the device files below root.
func FileDevices(root string) Devices {
	return Devices{IO: device.NewFileIO(root), OpenEvents: ui.FileEvents(root)}
}

// ControllerConfig maps the daemon configuration onto the subsystems.
func ControllerConfig(cfg *config.Config, devices Devices, logger *slog.Logger) maincontroller.Config {
	t := cfg.Timing
	out := maincontroller.Config{
		Powder: powder.Config{
			IO:           devices.IO,
			WaitTimeout:  t.WaitTimeout.AsDuration(),
			PollInterval: t.PollInterval.AsDuration(),
			InitDelay:    t.InitDelay.AsDuration(),
			RetryBackoff: t.RetryBackoff.AsDuration(),
		},
		Water: water.Config{
			IO:           devices.IO,
			WaitTimeout:  t.WaitTimeout.AsDuration(),
			RetryBackoff: t.RetryBackoff.AsDuration(),
		},
		UI: ui.Config{
			IO:           devices.IO,
			OpenEvents:   devices.OpenEvents,
			Display:      display.Config{IO: devices.IO, RetryBackoff: t.RetryBackoff.AsDuration()},
			RetryBackoff: t.RetryBackoff.AsDuration(),
		},
		Service: service.Config{
			TopicPrefix:  cfg.Service.TopicPrefix,
			RetryBackoff: t.RetryBackoff.AsDuration(),
		},
		BrewTime:     t.BrewTime.AsDuration(),
		WaitTimeout:  t.WaitTimeout.AsDuration(),
		RetryBackoff: t.RetryBackoff.AsDuration(),
	}

	if broker := cfg.Service.MQTTBroker; broker != "" {
		out.Service.Dial = func() (service.Bridge, error) {
			bridge, err := service.DialMQTT(service.MQTTConfig{
				Broker:   broker,
				ClientID: cfg.Service.ClientID,
				Logger:   logger.WithGroup("service.MQTTBridge"),
			})
			if err != nil {
				return nil, err
			}
			return bridge, nil
		}
	}
	return out
}

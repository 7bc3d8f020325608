package config

import (
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render("Coffeemaker Config"))

	logging := t.Child("Logging")
	logging.Child(fmt.Sprintf("Level: %s", c.LogLevel))
	logging.Child(fmt.Sprintf("Format: %s", c.LogFormat))
	if c.LogOutput != "" {
		logging.Child(fmt.Sprintf("Output: %s", c.LogOutput))
	}

	devices := t.Child("Devices")
	if c.Simulation.Enabled {
		devices.Child(fmt.Sprintf("Simulated (grind %s, heat %s)", c.Simulation.GrindTime, c.Simulation.HeatTime))
	} else {
		devices.Child(fmt.Sprintf("Root: %s", c.DeviceRoot))
	}
	devices.Child(fmt.Sprintf("Lock memory: %t", c.LockMemory))

	timing := t.Child("Timing")
	timing.Child(fmt.Sprintf("Wait timeout: %s", c.Timing.WaitTimeout))
	timing.Child(fmt.Sprintf("Retry backoff: %s", c.Timing.RetryBackoff))
	timing.Child(fmt.Sprintf("Init delay: %s", c.Timing.InitDelay))
	timing.Child(fmt.Sprintf("Poll interval: %s", c.Timing.PollInterval))
	timing.Child(fmt.Sprintf("Brew time: %s", c.Timing.BrewTime))

	service := t.Child("Service")
	if c.Service.MQTTBroker == "" {
		service.Child(fancy.InfoStyle.Render("no MQTT broker"))
	} else {
		service.Child(fmt.Sprintf("Broker: %s", c.Service.MQTTBroker))
		service.Child(fmt.Sprintf("Client ID: %s", c.Service.ClientID))
	}
	service.Child(fmt.Sprintf("Topic prefix: %s", c.Service.TopicPrefix))

	return t.String()
}

package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/ui"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/water"
	"github.com/robbyt/go-supervisor/supervisor"
)

var _ supervisor.Runnable = (*Simulator)(nil)

const (
	roomTemperature = 20
	maxTemperature  = 95
	simulationTick  = 20 * time.Millisecond
)

// SimulatorConfig sets how fast the simulated hardware reacts.
type SimulatorConfig struct {
	// GrindTime is how long the grinder runs before the powder sensor fires.
	GrindTime time.Duration
	// HeatTime is how long the heater needs from room temperature to the
	// minimum brewing temperature.
	HeatTime time.Duration
	// PowerOn starts the machine with the power switch on.
	PowerOn bool
}

// Simulator stands in for the hardware: sensors follow the actuators the
// subsystems drive.
type Simulator struct {
	cfg      SimulatorConfig
	io       *device.Memory
	buttons  *device.MemoryEvents
	switches *device.MemoryEvents
	logger   *slog.Logger

	mu          sync.Mutex
	grindingFor time.Duration
	temperature float64

	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewSimulator creates the simulated hardware with beans and water filled.
func NewSimulator(cfg SimulatorConfig, handler slog.Handler) *Simulator {
	if cfg.GrindTime <= 0 {
		cfg.GrindTime = 2 * time.Second
	}
	if cfg.HeatTime <= 0 {
		cfg.HeatTime = 3 * time.Second
	}
	if handler == nil {
		handler = slog.Default().Handler()
	}
	s := &Simulator{
		cfg:         cfg,
		io:          device.NewMemory(),
		buttons:     device.NewMemoryEvents(device.ButtonsEvent),
		switches:    device.NewMemoryEvents(device.SwitchesEvent),
		logger:      slog.New(handler).WithGroup("daemon.Simulator"),
		temperature: roomTemperature,
	}
	s.runCtx, s.runCancel = context.WithCancel(context.Background())

	s.io.Set(device.CoffeeBeansSensor, 1)
	s.io.Set(device.WaterSensor, 1)
	s.io.Set(device.WaterTemperatureSensor, roomTemperature)
	if cfg.PowerOn {
		s.io.Set(device.Switches, ui.PowerSwitch)
	}
	return s
}

// Devices returns the simulated devices for the subsystems.
func (s *Simulator) Devices() Devices {
	return Devices{
		IO: s.io,
		OpenEvents: func(endpoint string) (device.EventSource, error) {
			if endpoint == device.ButtonsEvent {
				return s.buttons, nil
			}
			return s.switches, nil
		},
	}
}

// Memory exposes the simulated device values.
func (s *Simulator) Memory() *device.Memory { return s.io }

// PressButton simulates a product button; index is zero based.
func (s *Simulator) PressButton(index int) { s.buttons.Trigger(index) }

// SetSwitches simulates flipping the switches to states.
func (s *Simulator) SetSwitches(states int) {
	s.io.Set(device.Switches, states)
	s.switches.Trigger(states)
}

func (s *Simulator) String() string {
	return "daemon.Simulator"
}

// Run implements the supervisor.Runnable interface
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("Simulating hardware", "grindTime", s.cfg.GrindTime, "heatTime", s.cfg.HeatTime)
	ticker := time.NewTicker(simulationTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.runCtx.Done():
			return nil
		case <-ticker.C:
			s.step(simulationTick)
		}
	}
}

// Stop implements the supervisor.Runnable interface
func (s *Simulator) Stop() {
	s.runCancel()
}

// step advances the simulation by dt.
func (s *Simulator) step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.io.Value(device.CoffeeGrinderMotor) != "" && s.io.Value(device.CoffeeGrinderMotor) != "0" {
		s.grindingFor += dt
	} else {
		s.grindingFor = 0
	}
	s.io.Set(device.CoffeePowderDispenser, boolInt(s.grindingFor >= s.cfg.GrindTime))

	pumping := s.io.Value(device.WaterPump) == "1"
	s.io.Set(device.WaterFlowSensor, boolInt(pumping))

	rate := float64(water.MinTemperature-roomTemperature) * dt.Seconds() / s.cfg.HeatTime.Seconds()
	if s.io.Value(device.WaterHeater) == "1" {
		s.temperature = min(s.temperature+rate, maxTemperature)
	} else {
		s.temperature = max(s.temperature-rate/4, roomTemperature)
	}
	s.io.Set(device.WaterTemperatureSensor, int(s.temperature))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package device provides access to the sensors, actuators and event devices
// of the machine. Endpoints are named by the device node they live at, such as
// "coffeeGrinderMotor" or "waterTemperatureSensor". Values are small integers
// exchanged as decimal text, the way the character devices report them.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Well known endpoints.
const (
	CoffeeGrinderMotor     = "coffeeGrinderMotor"
	CoffeePowderDispenser  = "coffeePowderDispenser"
	CoffeeBeansSensor      = "coffeeBeansSensor"
	WaterSensor            = "waterSensor"
	WaterFlowSensor        = "waterFlowSensor"
	WaterTemperatureSensor = "waterTemperatureSensor"
	WaterPump              = "waterPump"
	WaterHeater            = "waterHeater"
	Switches               = "switches"
	SwitchesEvent          = "switchesEvent"
	ButtonsEvent           = "buttonsEvent"
	Display                = "display"
)

// WriteMode selects how a write treats the endpoint's previous content.
type WriteMode int

const (
	// Replace overwrites the current value.
	Replace WriteMode = iota
	// Queue appends to the values already pending at the endpoint.
	Queue
)

func (m WriteMode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Queue:
		return "queue"
	default:
		return "WriteMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Reader reads the current value of an endpoint without blocking.
type Reader interface {
	Read(endpoint string) (int, error)
}

// Writer writes a value to an endpoint. When block is false a busy endpoint
// fails with errz.ErrWouldBlock instead of waiting.
type Writer interface {
	Write(endpoint, value string, mode WriteMode, block bool) error
}

// IO is a Reader and a Writer.
type IO interface {
	Reader
	Writer
}

// EventSource is a device that signals readiness, such as a button that was
// pressed. Ready is compatible with activity.Source so event devices can be
// waited on together with an activity's inbox.
type EventSource interface {
	Ready() <-chan struct{}
	ReadEvent() (int, error)
	Close() error
	String() string
}

// ReadBool reads endpoint and reports whether its value is non-zero.
func ReadBool(r Reader, endpoint string) (bool, error) {
	v, err := r.Read(endpoint)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// WriteInt writes v as decimal text.
func WriteInt(w Writer, endpoint string, v int, mode WriteMode, block bool) error {
	return w.Write(endpoint, strconv.Itoa(v), mode, block)
}

func parseValue(endpoint string, raw []byte) (int, error) {
	s := strings.TrimSpace(strings.TrimRight(string(raw), "\x00"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: unreadable value %q", errz.ErrIOFailure, endpoint, s)
	}
	return v, nil
}

func validEndpoint(endpoint string) error {
	if endpoint == "" || strings.ContainsAny(endpoint, "/\x00") || endpoint == "." || endpoint == ".." {
		return fmt.Errorf("%w: invalid endpoint %q", errz.ErrInvalidName, endpoint)
	}
	return nil
}

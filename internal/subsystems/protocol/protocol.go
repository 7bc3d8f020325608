// Package protocol holds the messages exchanged between the machine's
// subsystems and the addresses of the activities that exchange them.
package protocol

import (
	"strconv"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
)

// Activity names.
const (
	MainControllerName        = "mainController"
	CoffeePowderDispenserName = "coffeePowderDispenser"
	FillStateMonitorName      = "fillStateMonitor"
	MotorControllerName       = "motorController"
	WaterSupplyName           = "waterSupply"
	UserInterfaceName         = "userInterface"
	DisplayName               = "display"
	ServiceInterfaceName      = "serviceInterface"
)

// Addresses of the well-known activities.
var (
	MainController        = activity.Address(MainControllerName)
	CoffeePowderDispenser = activity.Address(CoffeePowderDispenserName)
	FillStateMonitor      = activity.Address(FillStateMonitorName)
	MotorController       = activity.Address(MotorControllerName)
	WaterSupply           = activity.Address(WaterSupplyName)
	UserInterface         = activity.Address(UserInterfaceName)
	Display               = activity.Address(DisplayName)
	ServiceInterface      = activity.Address(ServiceInterfaceName)
)

// Descriptor ids carried in sender blocks.
const (
	MainControllerID uint32 = iota + 1
	CoffeePowderDispenserID
	FillStateMonitorID
	MotorControllerID
	WaterSupplyID
	UserInterfaceID
	DisplayID
	ServiceInterfaceID
)

// Code is a command, result or notification code.
type Code int

// Commands.
const (
	InitCommand  Code = 1
	OffCommand   Code = 2
	AbortCommand Code = 3

	SupplyStartCommand Code = 10
	SupplyStopCommand  Code = 11
	MotorStartCommand  Code = 20
	MotorStopCommand   Code = 21
	WaterStartCommand  Code = 30
	WaterStopCommand   Code = 31
)

// Results.
const (
	OKResult  Code = 101
	NOKResult Code = 201
)

// Notifications.
const (
	NoBeansNotification        Code = 301
	BeansAvailableNotification Code = 302
	NoWaterNotification        Code = 303
	WaterAvailableNotification Code = 304
)

var codeNames = map[Code]string{
	InitCommand:                "init",
	OffCommand:                 "off",
	AbortCommand:               "abort",
	SupplyStartCommand:         "supplyStart",
	SupplyStopCommand:          "supplyStop",
	MotorStartCommand:          "motorStart",
	MotorStopCommand:           "motorStop",
	WaterStartCommand:          "waterStart",
	WaterStopCommand:           "waterStop",
	OKResult:                   "ok",
	NOKResult:                  "nok",
	NoBeansNotification:        "noBeans",
	BeansAvailableNotification: "beansAvailable",
	NoWaterNotification:        "noWater",
	WaterAvailableNotification: "waterAvailable",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}

// ParseCode looks a code up by name.
func ParseCode(name string) (Code, bool) {
	for c, n := range codeNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// MachineState is the state of the machine as shown to the user.
type MachineState int

const (
	MachineOff MachineState = iota
	MachineInitializing
	MachineIdle
	MachineProducing
)

func (s MachineState) String() string {
	switch s {
	case MachineOff:
		return "off"
	case MachineInitializing:
		return "initializing"
	case MachineIdle:
		return "idle"
	case MachineProducing:
		return "producing"
	default:
		return "MachineState(" + strconv.Itoa(int(s)) + ")"
	}
}

// Ingredient indexes the availability flags shown on the display.
type Ingredient int

const (
	Coffee Ingredient = iota
	Water
	Milk
)

func (i Ingredient) String() string {
	switch i {
	case Coffee:
		return "coffee"
	case Water:
		return "water"
	case Milk:
		return "milk"
	default:
		return "Ingredient(" + strconv.Itoa(int(i)) + ")"
	}
}

// Message type ids.
const (
	CommandType message.Type = iota + 1
	ResultType
	NotificationType
	ChangeViewType
	StatusType
	ProductRequestType
	TextType
	MachineStateChangedType
	AvailabilityChangedType
)

// Command asks an activity to do something.
type Command struct {
	Code Code   `json:"code"`
	Text string `json:"text,omitempty"`
}

func (Command) MessageType() message.Type { return CommandType }

// Result answers a command.
type Result struct {
	Code Code   `json:"code"`
	Text string `json:"text,omitempty"`
}

func (Result) MessageType() message.Type { return ResultType }

// OK reports whether the result is OKResult.
func (r Result) OK() bool { return r.Code == OKResult }

// Notification reports a condition detected by a subsystem.
type Notification struct {
	Code Code   `json:"code"`
	Text string `json:"text,omitempty"`
}

func (Notification) MessageType() message.Type { return NotificationType }

// ChangeView carries everything the display shows.
type ChangeView struct {
	PowerOn      bool         `json:"powerOn"`
	MachineState MachineState `json:"machineState"`
	WithMilk     bool         `json:"withMilk"`
	Coffee       bool         `json:"coffee"`
	Water        bool         `json:"water"`
	Milk         bool         `json:"milk"`
	ProductIndex int          `json:"productIndex"`
	WasteBinFull bool         `json:"wasteBinFull"`
}

func (ChangeView) MessageType() message.Type { return ChangeViewType }

// Status reports the state of a subsystem to the service interface.
type Status struct {
	Subsystem string `json:"subsystem"`
	State     string `json:"state"`
	Text      string `json:"text,omitempty"`
}

func (Status) MessageType() message.Type { return StatusType }

// ProductRequest orders a product. Products are numbered from 1.
type ProductRequest struct {
	Product  int  `json:"product"`
	WithMilk bool `json:"withMilk"`
}

func (ProductRequest) MessageType() message.Type { return ProductRequestType }

// Text is free text for the display.
type Text struct {
	Text string `json:"text"`
}

func (Text) MessageType() message.Type { return TextType }

// MachineStateChanged tells the user interface about a machine state change.
type MachineStateChanged struct {
	State MachineState `json:"state"`
}

func (MachineStateChanged) MessageType() message.Type { return MachineStateChangedType }

// AvailabilityChanged tells the user interface that an ingredient ran out or
// is available again.
type AvailabilityChanged struct {
	Ingredient Ingredient `json:"ingredient"`
	Available  bool       `json:"available"`
}

func (AvailabilityChanged) MessageType() message.Type { return AvailabilityChangedType }

// Catalog decodes every message in this package.
var Catalog = message.MustCatalog(
	Command{},
	Result{},
	Notification{},
	ChangeView{},
	Status{},
	ProductRequest{},
	Text{},
	MachineStateChanged{},
	AvailabilityChanged{},
)

// MaxProducts is the number of product buttons.
const MaxProducts = 3

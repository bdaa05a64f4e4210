package hw

import (
	"fmt"

	"github.com/wallbot/wallbot/pkg/robot"
)

// Pin is a board-specific pin name, e.g. "GPIO17" on a Raspberry Pi or "D6"
// on a microcontroller.
type Pin string

// Level is a digital logic level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Demodulating IR receivers pull their output low while they see the carrier.
const (
	ReceiverActive   = Low
	ReceiverInactive = High
)

// Wheel selects one side of the differential drive.
type Wheel int

const (
	WheelLeft Wheel = iota
	WheelRight
)

func (w Wheel) String() string {
	switch w {
	case WheelLeft:
		return "left"
	case WheelRight:
		return "right"
	default:
		return fmt.Sprintf("Wheel(%d)", int(w))
	}
}

// PulseGenerator drives emitters and indicators and samples receivers.
type PulseGenerator interface {
	EmitSquareWave(pin Pin, f robot.Frequency) error
	StopSquareWave(pin Pin) error
	ReadDigital(pin Pin) (Level, error)
	SetDigitalOutput(pin Pin, level Level) error
}

// Actuator sets the servo pulse width of each wheel.
type Actuator interface {
	SetPulseWidth(wheel Wheel, microseconds int) error
}

// Driver is the backend a Board talks to.
type Driver interface {
	Open() error
	Close() error
	PulseGenerator
	Actuator
}

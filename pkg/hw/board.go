// Package hw wraps the pin and servo backends the robot runs on. A Board logs
// every operation at trace level and delegates to a Driver: periph.io on a
// Linux host, tinygo on a microcontroller, or an in-memory mock for tests and
// dry runs.
package hw

import (
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/robot"
)

// Board is a wrapper of a Driver.
type Board struct {
	drv Driver
}

var (
	_ PulseGenerator = &Board{}
	_ Actuator       = &Board{}
)

// New returns a Board backed by drv.
func New(drv Driver) *Board {
	return &Board{drv: drv}
}

// NewMock returns a Board backed by a MockDriver using echo to decide what
// the receivers see. The driver is returned for inspection.
func NewMock(echo EchoFunc) (*Board, *MockDriver) {
	m := NewMockDriver(echo)
	return &Board{drv: m}, m
}

// Open opens the underlying driver.
func (b *Board) Open() error {
	return b.drv.Open()
}

// Close closes the underlying driver.
func (b *Board) Close() error {
	return b.drv.Close()
}

// EmitSquareWave starts a carrier on pin.
func (b *Board) EmitSquareWave(pin Pin, f robot.Frequency) error {
	logrus.WithFields(logrus.Fields{
		"pin":       pin,
		"frequency": f,
	}).Trace("Starting square wave")

	return b.drv.EmitSquareWave(pin, f)
}

// StopSquareWave silences pin.
func (b *Board) StopSquareWave(pin Pin) error {
	logrus.WithField("pin", pin).Trace("Stopping square wave")

	return b.drv.StopSquareWave(pin)
}

// ReadDigital samples pin once.
func (b *Board) ReadDigital(pin Pin) (Level, error) {
	logrus.WithField("pin", pin).Trace("Trying to read pin")

	l, err := b.drv.ReadDigital(pin)
	if err != nil {
		return l, err
	}

	logrus.WithFields(logrus.Fields{
		"pin":   pin,
		"level": l,
	}).Trace("Read pin succeed")

	return l, nil
}

// SetDigitalOutput drives pin to level.
func (b *Board) SetDigitalOutput(pin Pin, level Level) error {
	logrus.WithFields(logrus.Fields{
		"pin":   pin,
		"level": level,
	}).Trace("Trying to write pin")

	return b.drv.SetDigitalOutput(pin, level)
}

// SetPulseWidth sets the servo pulse width of wheel.
func (b *Board) SetPulseWidth(wheel Wheel, microseconds int) error {
	logrus.WithFields(logrus.Fields{
		"wheel":        wheel,
		"microseconds": microseconds,
	}).Trace("Setting servo pulse width")

	return b.drv.SetPulseWidth(wheel, microseconds)
}

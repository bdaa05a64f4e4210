//go:build !tinygo

package hw

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/wallbot/wallbot/pkg/robot"
)

// Standard hobby servos expect one pulse every 20ms.
const (
	servoFrequency = 50 * physic.Hertz
	servoPeriodUs  = 20000
)

// PeriphDriver drives GPIO pins through periph.io. Carriers and servo pulses
// use the pin's PWM, so emitters and servos must sit on PWM capable pins.
type PeriphDriver struct {
	mu     sync.Mutex
	servos map[Wheel]Pin
	pins   map[Pin]gpio.PinIO
	inputs map[Pin]bool
}

var _ Driver = &PeriphDriver{}

// NewPeriphDriver returns a driver whose left/right servos are attached to
// the given pins.
func NewPeriphDriver(leftServo, rightServo Pin) *PeriphDriver {
	return &PeriphDriver{
		servos: map[Wheel]Pin{WheelLeft: leftServo, WheelRight: rightServo},
		pins:   map[Pin]gpio.PinIO{},
		inputs: map[Pin]bool{},
	}
}

// Open initializes the host drivers.
func (d *PeriphDriver) Open() error {
	state, err := host.Init()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to initialize periph host")
	}
	logrus.WithField("loaded", len(state.Loaded)).Debug("periph host initialized")
	return nil
}

// Close halts every pin that was touched.
func (d *PeriphDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for name, p := range d.pins {
		if err := p.Halt(); err != nil && firstErr == nil {
			firstErr = pkgerrors.Wrapf(err, "failed to halt pin %s", name)
		}
	}
	return firstErr
}

func (d *PeriphDriver) pin(name Pin) (gpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pins[name]; ok {
		return p, nil
	}
	p := gpioreg.ByName(string(name))
	if p == nil {
		return nil, pkgerrors.Errorf("no GPIO pin named: %s", name)
	}
	d.pins[name] = p
	return p, nil
}

func (d *PeriphDriver) EmitSquareWave(pin Pin, f robot.Frequency) error {
	p, err := d.pin(pin)
	if err != nil {
		return err
	}
	if err := p.PWM(gpio.DutyHalf, physic.Frequency(f)*physic.Hertz); err != nil {
		return pkgerrors.Wrapf(err, "failed to start %s carrier on %s", f, pin)
	}
	return nil
}

func (d *PeriphDriver) StopSquareWave(pin Pin) error {
	p, err := d.pin(pin)
	if err != nil {
		return err
	}
	return pkgerrors.Wrapf(p.Out(gpio.Low), "failed to stop carrier on %s", pin)
}

func (d *PeriphDriver) ReadDigital(pin Pin) (Level, error) {
	p, err := d.pin(pin)
	if err != nil {
		return ReceiverInactive, err
	}

	d.mu.Lock()
	configured := d.inputs[pin]
	d.mu.Unlock()
	if !configured {
		// Receivers idle high; keep them there when nothing drives the line.
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return ReceiverInactive, pkgerrors.Wrapf(err, "failed to configure %s as input", pin)
		}
		d.mu.Lock()
		d.inputs[pin] = true
		d.mu.Unlock()
	}

	return Level(p.Read()), nil
}

func (d *PeriphDriver) SetDigitalOutput(pin Pin, level Level) error {
	p, err := d.pin(pin)
	if err != nil {
		return err
	}
	return pkgerrors.Wrapf(p.Out(gpio.Level(level)), "failed to set %s %s", pin, level)
}

func (d *PeriphDriver) SetPulseWidth(wheel Wheel, microseconds int) error {
	name, ok := d.servos[wheel]
	if !ok {
		return pkgerrors.Errorf("no servo attached to %s wheel", wheel)
	}
	p, err := d.pin(name)
	if err != nil {
		return err
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(microseconds) / servoPeriodUs)
	return pkgerrors.Wrapf(p.PWM(duty, servoFrequency), "failed to set %s servo to %dus", wheel, microseconds)
}

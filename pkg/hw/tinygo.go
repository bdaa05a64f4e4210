//go:build tinygo

package hw

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/servo"

	"github.com/wallbot/wallbot/pkg/robot"
)

// CarrierPWM is the subset of a tinygo PWM peripheral used to produce IR
// carriers.
type CarrierPWM interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetPeriod(period uint64) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// ServoConfig has device-level values for setting up a wheel servo.
type ServoConfig struct {
	Pin machine.Pin
	PWM servo.PWM
}

// EmitterConfig binds an emitter pin to the PWM peripheral that drives it.
type EmitterConfig struct {
	Pin machine.Pin
	PWM CarrierPWM
}

// TinyGoConfig lists every pin the driver may touch, by name.
type TinyGoConfig struct {
	Emitters   map[Pin]EmitterConfig
	Receivers  map[Pin]machine.Pin
	Indicators map[Pin]machine.Pin
	LeftServo  ServoConfig
	RightServo ServoConfig
}

type emitter struct {
	pwm     CarrierPWM
	channel uint8
}

// TinyGoDriver runs directly on a microcontroller.
type TinyGoDriver struct {
	cfg      TinyGoConfig
	emitters map[Pin]emitter
	servos   map[Wheel]servo.Servo
}

var _ Driver = &TinyGoDriver{}

func NewTinyGoDriver(cfg TinyGoConfig) *TinyGoDriver {
	return &TinyGoDriver{
		cfg:      cfg,
		emitters: map[Pin]emitter{},
		servos:   map[Wheel]servo.Servo{},
	}
}

func (d *TinyGoDriver) Open() error {
	for name, e := range d.cfg.Emitters {
		if err := e.PWM.Configure(machine.PWMConfig{}); err != nil {
			return errors.New("error configuring carrier pwm for " + string(name) + ": " + err.Error())
		}
		ch, err := e.PWM.Channel(e.Pin)
		if err != nil {
			return errors.New("error getting carrier channel for " + string(name) + ": " + err.Error())
		}
		d.emitters[name] = emitter{pwm: e.PWM, channel: ch}
	}
	for _, p := range d.cfg.Receivers {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	for _, p := range d.cfg.Indicators {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}

	for wheel, sc := range map[Wheel]ServoConfig{WheelLeft: d.cfg.LeftServo, WheelRight: d.cfg.RightServo} {
		s, err := servo.New(sc.PWM, sc.Pin)
		if err != nil {
			return errors.New("error creating " + wheel.String() + " servo: " + err.Error())
		}
		d.servos[wheel] = s
	}
	return nil
}

func (d *TinyGoDriver) Close() error {
	for _, e := range d.emitters {
		e.pwm.Set(e.channel, 0)
	}
	return nil
}

func (d *TinyGoDriver) EmitSquareWave(pin Pin, f robot.Frequency) error {
	e, ok := d.emitters[pin]
	if !ok {
		return errors.New("unknown emitter pin " + string(pin))
	}
	if f <= 0 {
		return errors.New("invalid carrier frequency")
	}
	if err := e.pwm.SetPeriod(uint64(1e9) / uint64(f)); err != nil {
		return err
	}
	e.pwm.Set(e.channel, e.pwm.Top()/2)
	return nil
}

func (d *TinyGoDriver) StopSquareWave(pin Pin) error {
	e, ok := d.emitters[pin]
	if !ok {
		return errors.New("unknown emitter pin " + string(pin))
	}
	e.pwm.Set(e.channel, 0)
	return nil
}

func (d *TinyGoDriver) ReadDigital(pin Pin) (Level, error) {
	p, ok := d.cfg.Receivers[pin]
	if !ok {
		return ReceiverInactive, errors.New("unknown receiver pin " + string(pin))
	}
	return Level(p.Get()), nil
}

func (d *TinyGoDriver) SetDigitalOutput(pin Pin, level Level) error {
	p, ok := d.cfg.Indicators[pin]
	if !ok {
		return errors.New("unknown indicator pin " + string(pin))
	}
	p.Set(bool(level))
	return nil
}

func (d *TinyGoDriver) SetPulseWidth(wheel Wheel, microseconds int) error {
	s, ok := d.servos[wheel]
	if !ok {
		return errors.New("no servo attached to " + wheel.String() + " wheel")
	}
	s.SetMicroseconds(int16(microseconds))
	return nil
}

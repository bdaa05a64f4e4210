//go:build tinygo

// Firmware for a Raspberry Pi Pico carrying the robot directly. It runs the
// same navigation core as the host binary with the factory calibration and
// writes diagnostic lines to the USB serial console.
package main

import (
	"machine"
	"time"

	"github.com/wallbot/wallbot/pkg/calibration"
	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/drive"
	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/nav"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/sensor"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

const (
	warmUp    = 3 * time.Second
	exitTurns = 10
)

var pins = sensor.PinMap{
	robot.ChannelFront: {Emitter: "GP2", Receiver: "GP10", Indicator: "GP20"},
	robot.ChannelLeft:  {Emitter: "GP4", Receiver: "GP11", Indicator: "GP21"},
	robot.ChannelRight: {Emitter: "GP6", Receiver: "GP13", Indicator: "GP22"},
}

func main() {
	drv := hw.NewTinyGoDriver(hw.TinyGoConfig{
		Emitters: map[hw.Pin]hw.EmitterConfig{
			"GP2": {Pin: machine.GP2, PWM: machine.PWM1},
			"GP4": {Pin: machine.GP4, PWM: machine.PWM2},
			"GP6": {Pin: machine.GP6, PWM: machine.PWM3},
		},
		Receivers: map[hw.Pin]machine.Pin{
			"GP10": machine.GP10,
			"GP11": machine.GP11,
			"GP13": machine.GP13,
		},
		Indicators: map[hw.Pin]machine.Pin{
			"GP20": machine.GP20,
			"GP21": machine.GP21,
			"GP22": machine.GP22,
		},
		LeftServo:  hw.ServoConfig{PWM: machine.PWM7, Pin: machine.GP14},
		RightServo: hw.ServoConfig{PWM: machine.PWM6, Pin: machine.GP12},
	})

	board := hw.New(drv)
	if err := board.Open(); err != nil {
		panic(err)
	}

	clock := timeutil.RealClock{}
	console := diag.NewWriter(machine.Serial)
	wheels := drive.New(board, clock, drive.DefaultParams())
	if err := wheels.Neutral(); err != nil {
		panic(err)
	}

	session, err := nav.NewSession(calibration.DefaultTable(), pins, exitTurns)
	if err != nil {
		panic(err)
	}

	diag.Printf(console, "warming up %s", warmUp)
	time.Sleep(warmUp)

	engine := nav.New(session, sensor.New(board, clock, pins), wheels, nav.DefaultSettings(),
		nav.WithDiagnostics(console),
	)
	if err := engine.Run(nil); err != nil {
		diag.Printf(console, "run failed: %v", err)
	}
	_ = wheels.Neutral()
	diag.Printf(console, "done after %d turns", session.CompletedTurns())

	// Nothing left to do; keep the console alive.
	for {
		time.Sleep(time.Hour)
	}
}

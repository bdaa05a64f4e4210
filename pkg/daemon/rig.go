package daemon

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/diag"
	"github.com/wallbot/wallbot/pkg/drive"
	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/sensor"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// DiagStdout as the diagnostic port writes diagnostic lines to stdout.
const DiagStdout = "-"

// Rig is the assembled hardware stack of one robot.
type Rig struct {
	Board  *hw.Board
	Sensor *sensor.Sensor
	Drive  *drive.Controller
	Diag   diag.Sink
}

// newDriver picks the hardware backend. Tests replace it.
var newDriver = func(conf config.Config) (hw.Driver, error) {
	switch b := conf.Backend(); b {
	case config.BackendPeriph:
		left, right := conf.ServoPins()
		return hw.NewPeriphDriver(left, right), nil
	case config.BackendMock:
		return hw.NewMockDriver(nil), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", b)
	}
}

// OpenRig opens the configured backend and builds the sensor, drive and
// diagnostic sink on top of it. The wheels start at neutral.
func OpenRig(conf config.Config, clock timeutil.Clock) (*Rig, error) {
	drv, err := newDriver(conf)
	if err != nil {
		return nil, err
	}

	board := hw.New(drv)
	if err := board.Open(); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open %s backend", conf.Backend())
	}

	emit, settle := conf.SensorWindows()
	r := &Rig{
		Board:  board,
		Sensor: sensor.New(board, clock, conf.Pins(), sensor.WithWindows(emit, settle)),
		Drive:  drive.New(board, clock, conf.DriveParams()),
		Diag:   diag.Nop{},
	}

	switch port := conf.DiagPort(); port {
	case "":
	case DiagStdout:
		r.Diag = diag.NewWriter(os.Stdout)
	default:
		sink, err := diag.OpenSerial(port, conf.DiagOptions())
		if err != nil {
			_ = board.Close()
			return nil, err
		}
		r.Diag = sink
	}

	if err := r.Drive.Neutral(); err != nil {
		_ = r.Close()
		return nil, err
	}

	logrus.WithField("backend", conf.Backend()).Info("hardware ready")
	return r, nil
}

// Close stops the wheels, clears the indicators and releases the hardware.
func (r *Rig) Close() error {
	if err := r.Drive.Neutral(); err != nil {
		logrus.Errorf("failed to stop wheels: %v", err)
	}
	if err := r.Sensor.ClearIndicators(); err != nil {
		logrus.Errorf("failed to clear indicators: %v", err)
	}
	if err := r.Diag.Close(); err != nil {
		logrus.Warnf("failed to close diagnostic output: %v", err)
	}

	logrus.Info("closing hardware backend")
	return r.Board.Close()
}

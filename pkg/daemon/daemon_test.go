package daemon

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

// useMockHardware swaps the backend, clock and signal hooks for the duration
// of a test.
func useMockHardware(t *testing.T, echo hw.EchoFunc, signals func(chan<- os.Signal)) *hw.MockDriver {
	t.Helper()

	drv := hw.NewMockDriver(echo)
	origDriver, origClock, origSignals := newDriver, clock, notifySignals
	newDriver = func(config.Config) (hw.Driver, error) { return drv, nil }
	clock = timeutil.NewMockClock(time.Unix(1700000000, 0))
	notifySignals = signals
	t.Cleanup(func() {
		newDriver, clock, notifySignals = origDriver, origClock, origSignals
	})
	return drv
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "wallbot.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestRunUntilExit(t *testing.T) {
	// Wall ahead at every tick, nothing on the sides: the robot keeps turning
	// left until it has made enough turns to leave.
	drv := useMockHardware(t, hw.ThresholdEcho(map[hw.Pin]robot.Frequency{
		"GPIO5": 38000,
	}), func(chan<- os.Signal) {})

	path := writeConfig(t, `{"backend": "mock", "exitTurns": 2, "warmUpMs": 0}`)
	require.NoError(t, Run(Options{ConfigPath: path}))

	assert.False(t, drv.Opened())
	assert.Equal(t, 1500, drv.PulseWidth(hw.WheelLeft))
	assert.Equal(t, 1500, drv.PulseWidth(hw.WheelRight))
	assert.Equal(t, hw.Low, drv.Output("GPIO16"))
	// Two pre-turns, two turns, exit forward, stop, then neutral on close.
	assert.Contains(t, drv.PulseWidthHistory(hw.WheelLeft), 1680)
}

func TestRunStopsOnSignal(t *testing.T) {
	drv := useMockHardware(t, nil, func(c chan<- os.Signal) {
		c <- syscall.SIGTERM
	})

	// The mock clock never reaches the warm-up deadline; only the signal ends it.
	path := writeConfig(t, `{"backend": "mock", "warmUpMs": 60000}`)
	done := make(chan error, 1)
	go func() { done <- Run(Options{ConfigPath: path}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop on signal")
	}
	assert.Empty(t, drv.Emissions())
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	useMockHardware(t, nil, func(chan<- os.Signal) {})

	path := writeConfig(t, `{"backend": "mock", "frequencies": {"left": {"wallDetect": 38000}}}`)
	assert.Error(t, Run(Options{ConfigPath: path}))
}

func TestWarmUp(t *testing.T) {
	clk := timeutil.NewMockClock(time.Unix(1700000000, 0))
	assert.True(t, warmUp(clk, 0, nil))

	stop := make(chan struct{})
	close(stop)
	assert.False(t, warmUp(clk, time.Hour, stop))

	// Waits on virtual time only.
	done := make(chan bool, 1)
	go func() { done <- warmUp(clk, 3*time.Second, nil) }()
	deadline := time.After(5 * time.Second)
	for {
		clk.Advance(time.Second)
		select {
		case ok := <-done:
			assert.True(t, ok)
			return
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("warm-up did not finish on the mock clock")
		}
	}
}

package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

func newTestController(t *testing.T) (*Controller, *hw.MockDriver, *timeutil.MockClock) {
	t.Helper()
	board, drv := hw.NewMock(nil)
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	return New(board, clock, DefaultParams()), drv, clock
}

func TestExecutePulseWidths(t *testing.T) {
	tests := []struct {
		cmd         robot.Command
		left, right int
	}{
		{robot.Forward(100 * time.Millisecond), 1680, 1320},
		{robot.Backward(500 * time.Millisecond), 1320, 1680},
		{robot.TurnLeft(900 * time.Millisecond), 1320, 1320},
		{robot.TurnRight(900 * time.Millisecond), 1680, 1680},
		{robot.PreTurnLeft(50 * time.Millisecond), 1500, 1420},
		{robot.PreTurnRight(50 * time.Millisecond), 1580, 1500},
		{robot.Stop(), 1500, 1500},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			c, drv, clock := newTestController(t)
			require.NoError(t, c.Execute(tt.cmd))
			assert.Equal(t, tt.left, drv.PulseWidth(hw.WheelLeft))
			assert.Equal(t, tt.right, drv.PulseWidth(hw.WheelRight))
			assert.Equal(t, tt.cmd.Duration, clock.Elapsed())
		})
	}
}

func TestStopDoesNotBlock(t *testing.T) {
	c, _, clock := newTestController(t)
	require.NoError(t, c.Execute(robot.Command{Kind: robot.KindStop, Duration: time.Second}))
	assert.Empty(t, clock.Sleeps())
}

func TestPreTurnIsSmallerThanMainTurn(t *testing.T) {
	p := DefaultParams()
	for _, dir := range []robot.Channel{robot.ChannelLeft, robot.ChannelRight} {
		pre := p.SetPointsFor(robot.PreTurn(dir, 0))
		main := p.SetPointsFor(robot.Turn(dir, 0))
		assert.Less(t, abs(pre.Left)+abs(pre.Right), abs(main.Left)+abs(main.Right), dir.String())
	}
}

func TestMicrosClamps(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1700, p.Micros(3))
	assert.Equal(t, 1300, p.Micros(-3))
	assert.Equal(t, 1500, p.Micros(0))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.TurnSpeed = 1.5
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.SpanMicros = 0
	assert.Error(t, p.Validate())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

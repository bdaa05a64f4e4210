package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
	"github.com/wallbot/wallbot/pkg/timeutil"
)

var testPins = PinMap{
	robot.ChannelFront: {Emitter: "F_TX", Receiver: "F_RX", Indicator: "F_LED"},
	robot.ChannelLeft:  {Emitter: "L_TX", Receiver: "L_RX", Indicator: "L_LED"},
	robot.ChannelRight: {Emitter: "R_TX", Receiver: "R_RX", Indicator: "R_LED"},
}

func newTestSensor(echo hw.EchoFunc) (*Sensor, *hw.MockDriver, *timeutil.MockClock) {
	board, drv := hw.NewMock(echo)
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(board, clock, testPins), drv, clock
}

func TestDetect_InvertsActiveLowReceiver(t *testing.T) {
	s, _, _ := newTestSensor(hw.ThresholdEcho(map[hw.Pin]robot.Frequency{"L_RX": 39000}))

	for _, ch := range robot.Channels {
		for _, f := range []robot.Frequency{38000, 39000, 39100, 42000} {
			want := hw.ReceiverInactive
			if ch == robot.ChannelLeft && f <= 39000 {
				want = hw.ReceiverActive
			}

			raw, err := s.Sample(ch, f)
			require.NoError(t, err)
			require.Equal(t, want, raw)

			detected, err := s.Detect(ch, f)
			require.NoError(t, err)
			assert.Equal(t, raw == hw.ReceiverActive, detected, "channel %s at %s", ch, f)
		}
	}
}

func TestDetect_Protocol(t *testing.T) {
	s, drv, clock := newTestSensor(nil)

	detected, err := s.Detect(robot.ChannelFront, 38000)
	require.NoError(t, err)
	assert.False(t, detected)

	assert.Equal(t, []hw.Emission{{Pin: "F_TX", Frequency: 38000}}, drv.Emissions())
	assert.False(t, drv.Emitting("F_TX"), "emitter must be silenced before returning")
	assert.Equal(t, 1, drv.Reads("F_RX"), "exactly one sample per call")
	assert.Equal(t, []time.Duration{DefaultEmitWindow, DefaultSettleWindow}, clock.Sleeps())
}

func TestDetect_IndicatorLatchedUntilCleared(t *testing.T) {
	s, drv, _ := newTestSensor(hw.ThresholdEcho(map[hw.Pin]robot.Frequency{"R_RX": 40000}))

	detected, err := s.Detect(robot.ChannelRight, 38000)
	require.NoError(t, err)
	require.True(t, detected)
	assert.Equal(t, hw.High, drv.Output("R_LED"))

	// A later miss on the same channel does not clear it.
	detected, err = s.Detect(robot.ChannelRight, 41000)
	require.NoError(t, err)
	require.False(t, detected)
	assert.Equal(t, hw.High, drv.Output("R_LED"))

	require.NoError(t, s.ClearIndicators())
	for _, p := range testPins {
		assert.Equal(t, hw.Low, drv.Output(p.Indicator))
	}
}

func TestDetect_IsIdempotent(t *testing.T) {
	s, _, _ := newTestSensor(hw.ThresholdEcho(map[hw.Pin]robot.Frequency{"F_RX": 38500}))

	for _, f := range []robot.Frequency{38000, 38500, 38600} {
		first, err := s.Detect(robot.ChannelFront, f)
		require.NoError(t, err)
		second, err := s.Detect(robot.ChannelFront, f)
		require.NoError(t, err)
		assert.Equal(t, first, second, "at %s", f)
	}
}

func TestDetect_InvalidChannel(t *testing.T) {
	s, drv, _ := newTestSensor(nil)

	_, err := s.Detect(robot.Channel(3), 38000)
	assert.True(t, errors.Is(err, ErrInvalidChannel))
	_, err = s.Sample(robot.Channel(-1), 38000)
	assert.True(t, errors.Is(err, ErrInvalidChannel))
	assert.Empty(t, drv.Emissions(), "nothing may be emitted for an invalid channel")

	partial := New(hw.New(hw.NewMockDriver(nil)), timeutil.NewMockClock(time.Time{}), PinMap{
		robot.ChannelFront: testPins[robot.ChannelFront],
	})
	_, err = partial.Detect(robot.ChannelLeft, 38000)
	assert.True(t, errors.Is(err, ErrInvalidChannel), "unwired channel")
}

func TestWithWindows(t *testing.T) {
	board, _ := hw.NewMock(nil)
	clock := timeutil.NewMockClock(time.Time{})
	s := New(board, clock, testPins, WithWindows(2*time.Millisecond, 3*time.Millisecond))

	_, err := s.Detect(robot.ChannelLeft, 38000)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 3 * time.Millisecond}, clock.Sleeps())
}

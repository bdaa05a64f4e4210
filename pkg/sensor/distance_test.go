package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallbot/wallbot/pkg/hw"
	"github.com/wallbot/wallbot/pkg/robot"
)

func TestSweepSteps(t *testing.T) {
	assert.Equal(t, 41, DefaultSweep().Steps())
	assert.Equal(t, 1, Sweep{Lower: 38000, Upper: 38000, Step: 100}.Steps())
	assert.Equal(t, 0, Sweep{Lower: 39000, Upper: 38000, Step: 100}.Steps())
	assert.Equal(t, 0, Sweep{Lower: 38000, Upper: 39000}.Steps())
}

func TestEstimateDistance(t *testing.T) {
	tests := []struct {
		name      string
		threshold robot.Frequency
		want      int
	}{
		{"no wall", 0, 0},
		{"far wall", 38000, 1},
		{"mid wall", 39950, 20},
		{"close wall", 42000, 41},
		{"very close wall", 46000, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSensor(hw.ThresholdEcho(map[hw.Pin]robot.Frequency{"F_RX": tt.threshold}))
			got, err := NewEstimator(s, DefaultSweep()).EstimateDistance(robot.ChannelFront)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateDistance_MonotonicInHits(t *testing.T) {
	prev := -1
	for threshold := robot.Frequency(37000); threshold <= 43000; threshold += 250 {
		s, _, _ := newTestSensor(hw.ThresholdEcho(map[hw.Pin]robot.Frequency{"L_RX": threshold}))
		score, err := NewEstimator(s, DefaultSweep()).EstimateDistance(robot.ChannelLeft)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, prev)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, DefaultSweep().Steps())
		prev = score
	}
}

func TestEstimateDistance_SweepsEveryStepOnce(t *testing.T) {
	s, drv, _ := newTestSensor(nil)
	_, err := NewEstimator(s, DefaultSweep()).EstimateDistance(robot.ChannelRight)
	require.NoError(t, err)

	emissions := drv.Emissions()
	require.Len(t, emissions, 41)
	assert.Equal(t, robot.Frequency(38000), emissions[0].Frequency)
	assert.Equal(t, robot.Frequency(42000), emissions[40].Frequency)
	for i := 1; i < len(emissions); i++ {
		assert.Equal(t, emissions[i-1].Frequency+100, emissions[i].Frequency)
		assert.Equal(t, hw.Pin("R_TX"), emissions[i].Pin)
	}
}

func TestEstimateDistance_InvalidChannel(t *testing.T) {
	s, _, _ := newTestSensor(nil)
	_, err := NewEstimator(s, DefaultSweep()).EstimateDistance(robot.Channel(9))
	assert.True(t, errors.Is(err, ErrInvalidChannel))
}

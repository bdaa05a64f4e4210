package calibration

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wallbot/wallbot/pkg/robot"
)

// ErrIncompleteTable is returned when a required (channel, purpose) pair has
// no usable frequency.
var ErrIncompleteTable = errors.New("incomplete calibration table")

// Pair is one (channel, purpose) key of a Table.
type Pair struct {
	Channel robot.Channel
	Purpose robot.Purpose
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Channel, p.Purpose)
}

// RequiredPairs are the entries the navigation engine reads every tick.
var RequiredPairs = []Pair{
	{robot.ChannelFront, robot.PurposeWallDetect},
	{robot.ChannelLeft, robot.PurposeWallDetect},
	{robot.ChannelRight, robot.PurposeWallDetect},
	{robot.ChannelLeft, robot.PurposeProximityFine},
	{robot.ChannelRight, robot.PurposeProximityFine},
}

// Table maps (channel, purpose) to a carrier frequency.
type Table map[robot.Channel]map[robot.Purpose]robot.Frequency

// DefaultTable returns the factory calibration of the reference unit.
func DefaultTable() Table {
	return Table{
		robot.ChannelFront: {
			robot.PurposeWallDetect:    38000,
			robot.PurposeProximityFine: 38600,
		},
		robot.ChannelLeft: {
			robot.PurposeWallDetect:    38000,
			robot.PurposeProximityFine: 39400,
		},
		robot.ChannelRight: {
			robot.PurposeWallDetect:    38000,
			robot.PurposeProximityFine: 42100,
		},
	}
}

// Get returns the frequency for (ch, p).
func (t Table) Get(ch robot.Channel, p robot.Purpose) (robot.Frequency, bool) {
	byPurpose, ok := t[ch]
	if !ok {
		return 0, false
	}
	f, ok := byPurpose[p]
	return f, ok
}

// MustGet is Get for pairs already checked by Require.
func (t Table) MustGet(ch robot.Channel, p robot.Purpose) robot.Frequency {
	f, ok := t.Get(ch, p)
	if !ok {
		panic(fmt.Sprintf("calibration table has no entry for %s", Pair{ch, p}))
	}
	return f
}

// Set stores f for (ch, p).
func (t Table) Set(ch robot.Channel, p robot.Purpose, f robot.Frequency) {
	if t[ch] == nil {
		t[ch] = map[robot.Purpose]robot.Frequency{}
	}
	t[ch][p] = f
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	c := Table{}
	for ch, byPurpose := range t {
		for p, f := range byPurpose {
			c.Set(ch, p, f)
		}
	}
	return c
}

// Require returns ErrIncompleteTable naming every pair that is missing or
// not a positive frequency.
func (t Table) Require(pairs ...Pair) error {
	var missing []string
	for _, pair := range pairs {
		f, ok := t.Get(pair.Channel, pair.Purpose)
		if !ok || f <= 0 {
			missing = append(missing, pair.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: missing %s", ErrIncompleteTable, strings.Join(missing, ", "))
}

// Validate checks every pair the navigation engine needs.
func (t Table) Validate() error {
	return t.Require(RequiredPairs...)
}

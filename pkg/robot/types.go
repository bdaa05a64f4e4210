package robot

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies one of the three sensor positions.
type Channel int

const (
	ChannelFront Channel = iota
	ChannelLeft
	ChannelRight
)

// Channels lists every valid channel in polling order.
var Channels = []Channel{ChannelFront, ChannelLeft, ChannelRight}

// Valid reports whether c names a physical sensor position.
func (c Channel) Valid() bool {
	return c >= ChannelFront && c <= ChannelRight
}

func (c Channel) String() string {
	switch c {
	case ChannelFront:
		return "front"
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel accepts the names produced by Channel.String, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "f", "mid", "middle":
		return ChannelFront, nil
	case "left", "l":
		return ChannelLeft, nil
	case "right", "r":
		return ChannelRight, nil
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

// MarshalText implements encoding.TextMarshaler so channels read naturally as
// JSON keys.
func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid channel %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Channel) UnmarshalText(b []byte) error {
	parsed, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Purpose is what a calibrated frequency is meant to detect. The same receiver
// has a shorter effective range at higher carrier frequencies, so each purpose
// maps to its own frequency per channel.
type Purpose string

const (
	// PurposeWallDetect is a wall within decision range.
	PurposeWallDetect Purpose = "wallDetect"
	// PurposeProximityFine is a wall dangerously close, used for centering.
	PurposeProximityFine Purpose = "proximityFine"
)

// ParsePurpose accepts both the JSON names and the dashed CLI spellings.
func ParsePurpose(s string) (Purpose, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walldetect", "wall-detect", "wall":
		return PurposeWallDetect, nil
	case "proximityfine", "proximity-fine", "fine":
		return PurposeProximityFine, nil
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}

// Frequency is a carrier frequency in Hz.
type Frequency int

func (f Frequency) String() string {
	return fmt.Sprintf("%dHz", int(f))
}

// Kind is the variant of a steering command.
type Kind string

const (
	KindForward   Kind = "Forward"
	KindBackward  Kind = "Backward"
	KindTurnLeft  Kind = "TurnLeft"
	KindTurnRight Kind = "TurnRight"
	KindStop      Kind = "Stop"
)

// Command is a single steering command. Commands are produced fresh every tick
// and never queued.
type Command struct {
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration"`
	// PreTurn marks the short, smaller-magnitude pulse issued right before a
	// main turn to overcome static actuator bias.
	PreTurn bool `json:"preTurn,omitempty"`
}

func Forward(d time.Duration) Command   { return Command{Kind: KindForward, Duration: d} }
func Backward(d time.Duration) Command  { return Command{Kind: KindBackward, Duration: d} }
func TurnLeft(d time.Duration) Command  { return Command{Kind: KindTurnLeft, Duration: d} }
func TurnRight(d time.Duration) Command { return Command{Kind: KindTurnRight, Duration: d} }
func Stop() Command                     { return Command{Kind: KindStop} }

// PreTurnLeft returns the alignment pulse that precedes TurnLeft.
func PreTurnLeft(d time.Duration) Command {
	return Command{Kind: KindTurnLeft, Duration: d, PreTurn: true}
}

// PreTurnRight returns the alignment pulse that precedes TurnRight.
func PreTurnRight(d time.Duration) Command {
	return Command{Kind: KindTurnRight, Duration: d, PreTurn: true}
}

// Turn returns a main turn towards dir, which must be ChannelLeft or
// ChannelRight.
func Turn(dir Channel, d time.Duration) Command {
	if dir == ChannelLeft {
		return TurnLeft(d)
	}
	return TurnRight(d)
}

// PreTurn returns the alignment pulse that precedes Turn(dir, ...).
func PreTurn(dir Channel, d time.Duration) Command {
	if dir == ChannelLeft {
		return PreTurnLeft(d)
	}
	return PreTurnRight(d)
}

func (c Command) String() string {
	if c.Kind == KindStop {
		return string(c.Kind)
	}
	name := string(c.Kind)
	if c.PreTurn {
		name = "Pre" + name
	}
	return fmt.Sprintf("%s(%s)", name, c.Duration)
}

package robot

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"front", ChannelFront, false},
		{"Mid", ChannelFront, false},
		{" left ", ChannelLeft, false},
		{"R", ChannelRight, false},
		{"up", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChannel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseChannel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChannelValid(t *testing.T) {
	for _, c := range Channels {
		if !c.Valid() {
			t.Errorf("%v should be valid", c)
		}
	}
	if Channel(-1).Valid() || Channel(3).Valid() {
		t.Errorf("out of range channels must be invalid")
	}
	if got := Channel(5).String(); got != "Channel(5)" {
		t.Errorf("String() = %q", got)
	}
}

func TestChannelAsJSONKey(t *testing.T) {
	in := map[Channel]int{ChannelLeft: 1, ChannelRight: 2}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"left":1,"right":2}` {
		t.Errorf("Marshal = %s", b)
	}

	var out map[Channel]int
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out[ChannelLeft] != 1 || out[ChannelRight] != 2 {
		t.Errorf("Unmarshal = %v", out)
	}

	if err := json.Unmarshal([]byte(`{"up":1}`), &out); err == nil {
		t.Errorf("expected error for unknown channel key")
	}
}

func TestParsePurpose(t *testing.T) {
	for in, want := range map[string]Purpose{
		"wall-detect":    PurposeWallDetect,
		"wallDetect":     PurposeWallDetect,
		"proximity-fine": PurposeProximityFine,
		"fine":           PurposeProximityFine,
	} {
		got, err := ParsePurpose(in)
		if err != nil || got != want {
			t.Errorf("ParsePurpose(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePurpose("sideways"); err == nil {
		t.Errorf("expected error")
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Forward(100 * time.Millisecond), "Forward(100ms)"},
		{PreTurnLeft(50 * time.Millisecond), "PreTurnLeft(50ms)"},
		{Turn(ChannelRight, 900*time.Millisecond), "TurnRight(900ms)"},
		{Turn(ChannelLeft, time.Second), "TurnLeft(1s)"},
		{Stop(), "Stop"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

package calibration

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wallbot/wallbot/pkg/robot"
)

func TestDefaultTableIsComplete(t *testing.T) {
	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("default table should be complete: %v", err)
	}
}

func TestTableRequire(t *testing.T) {
	tbl := DefaultTable()
	delete(tbl[robot.ChannelLeft], robot.PurposeProximityFine)
	tbl.Set(robot.ChannelFront, robot.PurposeWallDetect, 0)

	err := tbl.Validate()
	if !errors.Is(err, ErrIncompleteTable) {
		t.Fatalf("expected ErrIncompleteTable, got %v", err)
	}
	for _, want := range []string{"front/wallDetect", "left/proximityFine"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should name %s", err, want)
		}
	}

	// The front fine frequency is not needed by navigation.
	tbl = DefaultTable()
	delete(tbl[robot.ChannelFront], robot.PurposeProximityFine)
	if err := tbl.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTableGetSetClone(t *testing.T) {
	tbl := Table{}
	if _, ok := tbl.Get(robot.ChannelRight, robot.PurposeWallDetect); ok {
		t.Fatalf("empty table should have no entries")
	}
	tbl.Set(robot.ChannelRight, robot.PurposeWallDetect, 38200)
	if f := tbl.MustGet(robot.ChannelRight, robot.PurposeWallDetect); f != 38200 {
		t.Errorf("MustGet = %v", f)
	}

	c := tbl.Clone()
	c.Set(robot.ChannelRight, robot.PurposeWallDetect, 1)
	if f, _ := tbl.Get(robot.ChannelRight, robot.PurposeWallDetect); f != 38200 {
		t.Errorf("Clone must not share storage, original now %v", f)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("MustGet on a missing pair should panic")
		}
	}()
	tbl.MustGet(robot.ChannelLeft, robot.PurposeWallDetect)
}

func TestTableJSON(t *testing.T) {
	b, err := json.Marshal(DefaultTable())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Table
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f := back.MustGet(robot.ChannelRight, robot.PurposeProximityFine); f != 42100 {
		t.Errorf("round trip lost right fine frequency, got %v", f)
	}
	if !strings.Contains(string(b), `"left":{`) {
		t.Errorf("channels should be keyed by name: %s", b)
	}
}

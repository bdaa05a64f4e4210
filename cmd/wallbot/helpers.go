package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/wallbot/wallbot/pkg/robot"
)

func parseChannelArg(args []string) (robot.Channel, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one channel (front, left or right)")
	}

	return robot.ParseChannel(args[0])
}

func parseFloatFlag(value, name string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", name, f)
	}

	return f, nil
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

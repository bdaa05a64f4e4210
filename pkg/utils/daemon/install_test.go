package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderUnit(t *testing.T) {
	unit := RenderUnit("/usr/local/bin/wallbot", UnitOptions{
		ConfigPath:   "/etc/wallbot.json",
		SocketPath:   "/run/wallbot.sock",
		AllowNonRoot: true,
	})
	want := "ExecStart=/usr/local/bin/wallbot run --config /etc/wallbot.json --daemon-socket /run/wallbot.sock --allow-non-root-access\n"
	if !strings.Contains(unit, want) {
		t.Errorf("unit does not contain %q:\n%s", want, unit)
	}

	unit = RenderUnit("/usr/local/bin/wallbot", UnitOptions{ConfigPath: "/etc/wallbot.json"})
	if !strings.Contains(unit, `--daemon-socket ""`+"\n") {
		t.Errorf("empty socket should be quoted:\n%s", unit)
	}
}

func TestRenderUnitQuotesPaths(t *testing.T) {
	tests := []struct {
		name   string
		opts   UnitOptions
		expect string
	}{
		{
			name:   "spaces",
			opts:   UnitOptions{ConfigPath: "/home/pi/my robot/wallbot.json", SocketPath: "/run/wall bot.sock"},
			expect: `--config "/home/pi/my robot/wallbot.json" --daemon-socket "/run/wall bot.sock"` + "\n",
		},
		{
			name:   "quotes and backslashes",
			opts:   UnitOptions{ConfigPath: `/etc/a"b\c.json`, SocketPath: "/run/wallbot.sock"},
			expect: `--config "/etc/a\"b\\c.json" --daemon-socket /run/wallbot.sock` + "\n",
		},
		{
			name:   "specifiers and variables",
			opts:   UnitOptions{ConfigPath: "/etc/100%.json", SocketPath: "/run/$HOME.sock"},
			expect: `--config /etc/100%%.json --daemon-socket /run/$$HOME.sock` + "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := RenderUnit("/usr/local/bin/wallbot", tt.opts)
			if !strings.Contains(unit, tt.expect) {
				t.Errorf("unit does not contain %q:\n%s", tt.expect, unit)
			}
		})
	}
}

func TestInstallUninstall(t *testing.T) {
	origPath, origCtl := unitPath, systemctl
	t.Cleanup(func() { unitPath, systemctl = origPath, origCtl })

	unitPath = filepath.Join(t.TempDir(), "systemd", "wallbot.service")
	var calls []string
	systemctl = func(args ...string) error {
		calls = append(calls, strings.Join(args, " "))
		return nil
	}

	if err := Install(UnitOptions{ConfigPath: "/etc/wallbot.json"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(unitPath); err != nil {
		t.Fatalf("unit not written: %v", err)
	}

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(unitPath); !os.IsNotExist(err) {
		t.Fatalf("unit should be removed, stat: %v", err)
	}

	want := []string{"daemon-reload", "enable wallbot.service", "disable --now wallbot.service", "daemon-reload"}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("systemctl calls = %v, want %v", calls, want)
	}
}

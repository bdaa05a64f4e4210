package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	unitPath = "/etc/systemd/system/wallbot.service"

	// systemctl runs systemctl with args. Tests replace it.
	systemctl = func(args ...string) error {
		return exec.Command("systemctl", args...).Run()
	}
)

const unitTemplate = `[Unit]
Description=wallbot maze navigation
After=local-fs.target

[Service]
Type=simple
ExecStart=%s run --config %s --daemon-socket %s%s
Restart=no

[Install]
WantedBy=multi-user.target
`

// UnitOptions are baked into the service's command line.
type UnitOptions struct {
	ConfigPath   string
	SocketPath   string
	AllowNonRoot bool
}

// RenderUnit returns the systemd unit that runs exePath with opts.
func RenderUnit(exePath string, opts UnitOptions) string {
	extra := ""
	if opts.AllowNonRoot {
		extra = " --allow-non-root-access"
	}
	return fmt.Sprintf(unitTemplate, exePath, execArg(opts.ConfigPath), execArg(opts.SocketPath), extra)
}

// execArg quotes s for an ExecStart= line when it is empty or contains
// characters systemd would split on, expand or unescape.
func execArg(s string) string {
	// systemd specifiers and variable expansion apply even inside quotes.
	s = strings.NewReplacer("%", "%%", "$", "$$").Replace(s)
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\;") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// Install writes the systemd unit for the current executable and enables it,
// so a run starts on boot.
func Install(opts UnitOptions) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}
	if strings.ContainsAny(exePath, " \t") {
		return fmt.Errorf("executable path %q must not contain whitespace", exePath)
	}

	logrus.Infof("current executable path: %s", exePath)

	// warn if the file already exists
	if _, err := os.Stat(unitPath); err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	logrus.Infof("writing %s", unitPath)
	if err := os.WriteFile(unitPath, []byte(RenderUnit(exePath, opts)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	if err := systemctl("enable", filepath.Base(unitPath)); err != nil {
		return fmt.Errorf("failed to enable %s: %w", filepath.Base(unitPath), err)
	}

	return nil
}

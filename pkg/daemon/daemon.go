// Package daemon runs a navigation session on real or mock hardware and, when
// asked to, serves its status over a unix socket.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/events"
	"github.com/wallbot/wallbot/pkg/nav"
	"github.com/wallbot/wallbot/pkg/timeutil"
	"github.com/wallbot/wallbot/pkg/types"
)

// Options configure a run.
type Options struct {
	ConfigPath string
	// SocketPath is where the status API listens. Empty disables it.
	SocketPath   string
	AllowNonRoot bool
}

var (
	clock timeutil.Clock = timeutil.RealClock{}

	notifySignals = func(c chan<- os.Signal) {
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	}

	recordCount = 600
)

// Run loads the configuration, opens the hardware, waits out the warm-up and
// navigates until the run completes or SIGINT/SIGTERM arrives. Signals are
// only honored between ticks.
func Run(opts Options) error {
	conf, err := config.NewFile(opts.ConfigPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid config")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	table, err := conf.Table()
	if err != nil {
		return err
	}
	session, err := nav.NewSession(table, conf.Pins(), conf.ExitTurns())
	if err != nil {
		return err
	}

	rig, err := OpenRig(conf, clock)
	if err != nil {
		return err
	}
	defer func() {
		if err := rig.Close(); err != nil {
			logrus.Errorf("failed to close hardware: %v", err)
		}
	}()

	hub := events.NewEventHub()
	recorder := NewRecorder(recordCount, conf.ExitTurns(), clock.Now(), hub)

	stop := make(chan struct{})
	sigc := make(chan os.Signal, 1)
	notifySignals(sigc)
	defer func() {
		signal.Stop(sigc)
		close(sigc)
	}()
	go func() {
		sig, ok := <-sigc
		if !ok {
			return
		}
		logrus.Infof("caught signal \"%s\": stopping after the current tick.", sig)
		close(stop)
	}()

	if opts.SocketPath != "" {
		srv, err := serve(&api{conf: conf, recorder: recorder, hub: hub, clock: clock}, opts.SocketPath, opts.AllowNonRoot)
		if err != nil {
			return err
		}
		defer func() {
			logrus.Info("shutting down http server")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logrus.Errorf("failed to shutdown http server: %v", err)
			}
		}()
	}
	// Ends event streams so the server can shut down.
	defer hub.Close()

	if !warmUp(clock, conf.WarmUp(), stop) {
		recorder.SetState(types.RunStateStopped)
		return nil
	}
	recorder.SetState(types.RunStateRunning)

	engine := nav.New(session, rig.Sensor, rig.Drive, conf.NavSettings(),
		nav.WithDiagnostics(rig.Diag),
		nav.WithObserver(recorder.Observe),
		nav.WithClock(clock),
	)

	err = engine.Run(stop)
	switch {
	case err != nil:
		recorder.Fail(err)
		return err
	case session.Finished():
		recorder.SetState(types.RunStateFinished)
	default:
		recorder.SetState(types.RunStateStopped)
	}

	logrus.WithFields(logrus.Fields{
		"ticks":          engine.Ticks(),
		"completedTurns": session.CompletedTurns(),
		"finished":       session.Finished(),
	}).Info("exiting")
	return nil
}

// warmUp waits d on c before the first tick. It returns false if stop closed
// first.
func warmUp(c timeutil.Clock, d time.Duration, stop <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	logrus.Infof("warming up for %s", d)

	select {
	case <-c.After(d):
		return true
	case <-stop:
		return false
	}
}

func serve(a *api, unixSocketPath string, allowNonRoot bool) (*http.Server, error) {
	// A stale socket from a crashed run would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}

	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		if err := os.Chmod(unixSocketPath, 0777); err != nil {
			_ = l.Close()
			return nil, err
		}
	}

	srv := &http.Server{
		Handler:           setupRoutes(a),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("http server failed: %v", err)
		}
	}()

	return srv, nil
}

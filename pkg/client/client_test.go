package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallbot/wallbot/pkg/events"
)

// serveUnix serves h on a unix socket in a short temporary directory, since
// socket paths are limited to around 100 bytes.
func serveUnix(t *testing.T, h http.Handler) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "s.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := &http.Server{Handler: h}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })
	return sock
}

func TestClientAPIs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"state":"running","ticks":7,"completedTurns":3,"exitTurns":10,
			"lastCommands":[{"kind":"TurnLeft","duration":900000000}]}`))
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"backend":"mock","exitTurns":4}`))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"v1.2.3"` + "\n"))
	})
	c := NewClient(serveUnix(t, mux))

	status, err := c.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "running", string(status.State))
	assert.Equal(t, 7, status.Ticks)
	require.Len(t, status.LastCommands, 1)
	assert.Equal(t, "TurnLeft(900ms)", status.LastCommands[0].String())

	conf, err := c.GetConfig()
	require.NoError(t, err)
	require.NotNil(t, conf.ExitTurns)
	assert.Equal(t, 4, *conf.ExitTurns)

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)

	_, err = c.Get("/nope")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestClientDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.GetStatus()
	assert.True(t, errors.Is(err, ErrDaemonNotRunning), "got %v", err)
}

func TestSubscribeEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": ping\n\n" +
			"event:tick\ndata:{\"tick\":1,\"completedTurns\":0}\n\n" +
			"event:run.state\ndata: {\"from\":\"running\",\"to\":\"finished\"}\n\n"))
	})
	c := NewClient(serveUnix(t, mux))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := c.SubscribeEvents(ctx)
	require.NoError(t, err)

	var got []events.Event
	for ev := range ch {
		got = append(got, ev)
	}
	require.Len(t, got, 2)

	assert.Equal(t, events.Tick, got[0].Name)
	tick, err := events.DecodeAs[events.TickEvent](got[0])
	require.NoError(t, err)
	assert.Equal(t, 1, tick.Tick)

	assert.Equal(t, events.RunState, got[1].Name)
	state, err := events.DecodeAs[events.RunStateEvent](got[1])
	require.NoError(t, err)
	assert.Equal(t, "finished", string(state.To))
}

func TestSubscribeEventsNotServed(t *testing.T) {
	c := NewClient(serveUnix(t, http.NewServeMux()))
	_, err := c.SubscribeEvents(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

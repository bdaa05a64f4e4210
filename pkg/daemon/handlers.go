package daemon

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wallbot/wallbot/pkg/config"
	"github.com/wallbot/wallbot/pkg/events"
	"github.com/wallbot/wallbot/pkg/timeutil"
	"github.com/wallbot/wallbot/pkg/version"
)

type api struct {
	conf     config.Config
	recorder *Recorder
	hub      *events.EventHub
	clock    timeutil.Clock
}

func setupRoutes(a *api) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrusLogger()))
	router.GET("/status", a.getStatus)
	router.GET("/config", a.getConfig)
	router.GET("/version", getVersion)
	router.GET("/events", a.getEvents)

	return router
}

func (a *api) getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, a.recorder.Snapshot(a.clock.Now()))
}

func (a *api) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(a.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// getEvents streams tick and run state events as server-sent events until the
// client goes away or the hub is closed.
func (a *api) getEvents(c *gin.Context) {
	ch := a.hub.Subscribe()
	defer a.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

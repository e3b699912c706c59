package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	realtime "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Realtime"
)

// Client actions accepted over the websocket
const (
	actionControlSelect = "control.select"
	actionControlState  = "control.state"
	actionControlDosing = "control.dosing"
	actionMonitorSelect = "monitor.select"
)

type wsRequest struct {
	Action   string `json:"action"`
	DeviceID string `json:"device_id"`
	Active   *bool  `json:"activo,omitempty"`
}

// WSController runs one dashboard session per websocket connection
type WSController struct {
	app      *dashboard.App
	hub      *realtime.Hub
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSController(app *dashboard.App, hub *realtime.Hub, logger *logger.Logger) *WSController {
	return &WSController{
		app:    app,
		hub:    hub,
		logger: logger.WithComponent("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the websocket route with Gin
func (c *WSController) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws", c.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and serves the page's session until it closes
func (c *WSController) HandleWebSocket(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := c.hub.Register(conn)
	go client.WritePump()

	page := dashboard.ParsePage(ctx.Query("page"))
	session := c.app.Sessions.NewSession(page, client)
	log := c.logger.WithSession(session.ID).WithField("page", page)
	log.Info("session opened")

	sctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		session.Stop()
		c.hub.Unregister(client)
		log.Info("session closed")
	}()

	c.sendInitial(client)
	if err := session.Start(sctx); err != nil {
		client.Error(err.Error())
	}

	client.PrepareRead()
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if err := c.dispatch(sctx, session, client, req); err != nil {
			log.WithError(err).WithField("action", req.Action).Warn("session action failed")
			client.Error(err.Error())
		}
	}
}

// sendInitial pushes the current shared views so the page renders without waiting a cycle
func (c *WSController) sendInitial(client *realtime.Client) {
	client.Publish(dashboard.EventRegistry, c.app.Registry.Table())
	client.Publish(dashboard.EventAlerts, c.app.Alerts.Current())
	client.Publish(dashboard.EventFeed, c.app.Feed.Snapshot())
}

func (c *WSController) dispatch(ctx context.Context, session *dashboard.Session, client *realtime.Client, req wsRequest) error {
	switch req.Action {
	case actionControlSelect:
		_, err := session.Control.Select(ctx, req.DeviceID)
		return err
	case actionControlState:
		if req.Active == nil {
			return errMissingActive
		}
		_, err := session.Control.SetActive(ctx, *req.Active)
		return err
	case actionControlDosing:
		if _, err := session.Control.ActivateDosing(ctx); err != nil {
			return err
		}
		snap := session.Control.Snapshot()
		client.Publish("dosing", gin.H{"message": dashboard.DosingMessage(snap.Device)})
		return nil
	case actionMonitorSelect:
		_, err := session.Monitor.Select(ctx, req.DeviceID)
		return err
	default:
		return errUnknownAction
	}
}

package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MonitorController serves the global alert, the global feed, history export and the command console
type MonitorController struct {
	app    *dashboard.App
	logger *logger.Logger
}

func NewMonitorController(app *dashboard.App, logger *logger.Logger) *MonitorController {
	return &MonitorController{app: app, logger: logger}
}

// RegisterRoutes registers the monitoring routes with Gin
func (c *MonitorController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/alerts", c.GetAlert)
		api.POST("/alerts/:id/dosing", c.DoseFromAlert)
		api.GET("/feed", c.GetFeed)
		api.GET("/monitor/:id/export.xlsx", c.ExportHistory)
		api.GET("/commands/:kind", c.RecentCommands)
		api.POST("/commands/:kind", c.SendCommand)
	}
}

func (c *MonitorController) GetAlert(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.app.Alerts.Current())
}

func (c *MonitorController) DoseFromAlert(ctx *gin.Context) {
	reading, alert, err := c.app.Alerts.ActivateDosing(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"registro": reading,
		"alert":    alert,
		"message":  dashboard.DosingMessage(alert.Device),
	})
}

func (c *MonitorController) GetFeed(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.app.Feed.Snapshot())
}

// ExportHistory streams the device's full history as a workbook
func (c *MonitorController) ExportHistory(ctx *gin.Context) {
	id := ctx.Param("id")
	var buf bytes.Buffer
	if err := c.app.Exporter.WriteXLSX(ctx.Request.Context(), id, &buf); err != nil {
		c.logger.WithDevice(id).ErrorWithError(err, "failed to export history")
		abortWithError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="registros_%s.xlsx"`, id))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type commandRequest struct {
	Action string `json:"accion" form:"accion" binding:"required"`
	User   string `json:"usuario" form:"usuario"`
}

func (c *MonitorController) SendCommand(ctx *gin.Context) {
	var req commandRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, _ := mqtmodels.ParseEquipmentKind(ctx.Param("kind"))
	cmd, err := c.app.Console.Send(ctx.Request.Context(), kind, req.Action, req.User)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, cmd)
}

func (c *MonitorController) RecentCommands(ctx *gin.Context) {
	kind, _ := mqtmodels.ParseEquipmentKind(ctx.Param("kind"))
	history, err := c.app.Console.Recent(ctx.Request.Context(), kind)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, history)
}

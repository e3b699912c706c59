package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
)

// DeviceController serves the registry and the stateless control actions
type DeviceController struct {
	app    *dashboard.App
	logger *logger.Logger
}

func NewDeviceController(app *dashboard.App, logger *logger.Logger) *DeviceController {
	return &DeviceController{app: app, logger: logger}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	devices := router.Group("/api/devices")
	{
		devices.GET("", c.ListDevices)
		devices.POST("", c.SaveDevice)
		devices.GET("/:id/form", c.EditDevice)
		devices.DELETE("/:id", c.DeleteDevice)
		devices.POST("/:id/dosing", c.ActivateDosing)
		devices.PUT("/:id/state", c.SetState)
	}
}

func (c *DeviceController) ListDevices(ctx *gin.Context) {
	table := c.app.Registry.Refresh(ctx.Request.Context())
	ctx.JSON(http.StatusOK, table)
}

// SaveDevice creates or replaces a device from form or JSON fields
func (c *DeviceController) SaveDevice(ctx *gin.Context) {
	var form dashboard.DeviceForm
	if err := ctx.ShouldBind(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created := form.ID == ""
	device, err := c.app.Registry.Save(ctx.Request.Context(), form)
	if err != nil {
		var saveErr *dashboard.SaveError
		if errors.As(err, &saveErr) {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": saveErr.Error(), "form": saveErr.Form})
			return
		}
		abortWithError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, device)
}

func (c *DeviceController) EditDevice(ctx *gin.Context) {
	form, err := c.app.Registry.Edit(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// DeleteDevice needs ?confirm=true
func (c *DeviceController) DeleteDevice(ctx *gin.Context) {
	confirmed := ctx.Query("confirm") == "true"
	if err := c.app.Registry.Delete(ctx.Request.Context(), ctx.Param("id"), confirmed); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.app.Registry.Table())
}

func (c *DeviceController) ActivateDosing(ctx *gin.Context) {
	id := ctx.Param("id")
	reading, err := c.app.Dosing.Activate(ctx.Request.Context(), id)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"registro": reading,
		"message":  dashboard.DosingMessage(nil),
	})
}

type setStateRequest struct {
	Active *bool `json:"activo" binding:"required"`
}

func (c *DeviceController) SetState(ctx *gin.Context) {
	var req setStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := dashboard.SetDeviceActive(ctx.Request.Context(), c.app.Devices, ctx.Param("id"), *req.Active)
	if err != nil {
		c.logger.WithDevice(ctx.Param("id")).ErrorWithError(err, "failed to update device state")
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, device)
}

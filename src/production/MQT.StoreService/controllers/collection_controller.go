package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// Collection names served under /api/v1
const (
	CollectionDevices  = "dispositivos"
	CollectionReadings = "registros"
)

var errUnknownCollection = errors.New("unknown collection")

// deviceBody is a device as written by clients. Numeric fields may arrive as strings.
type deviceBody struct {
	Name      string                `json:"nombre"`
	Type      string                `json:"tipo"`
	Location  string                `json:"ubicacion"`
	IP        string                `json:"ip"`
	State     mqtmodels.DeviceState `json:"estado"`
	CurrentPH Number                `json:"ph_actual"`
	TargetPH  Number                `json:"ph_objetivo"`
	Automatic Flag                  `json:"automatico"`
}

func (b deviceBody) device(id string) mqtmodels.Device {
	return mqtmodels.Device{
		ID:        id,
		Name:      b.Name,
		Type:      b.Type,
		Location:  b.Location,
		IP:        b.IP,
		State:     b.State,
		CurrentPH: b.CurrentPH.Ptr(),
		TargetPH:  b.TargetPH.Ptr(),
		Automatic: bool(b.Automatic),
	}
}

type readingBody struct {
	DeviceID        Text   `json:"dispositivo_id"`
	PH              Number `json:"ph"`
	DosingActivated Flag   `json:"dosificador_activado"`
	Timestamp       string `json:"timestamp"`
}

// CollectionController serves the generic collection contract over the store backend
type CollectionController struct {
	devices  interfaces.DeviceRepository
	readings interfaces.ReadingRepository
	commands interfaces.CommandRepository
	logger   *logger.Logger
	now      func() time.Time
}

func NewCollectionController(devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, commands interfaces.CommandRepository, logger *logger.Logger) *CollectionController {
	return &CollectionController{
		devices:  devices,
		readings: readings,
		commands: commands,
		logger:   logger.WithComponent("collections"),
		now:      time.Now,
	}
}

// RegisterRoutes registers the collection routes with Gin
func (c *CollectionController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/:collection", c.List)
		api.GET("/:collection/:id", c.Get)
		api.POST("/:collection", c.Create)
		api.PUT("/:collection/:id", c.Replace)
		api.DELETE("/:collection/:id", c.Delete)
	}
}

// List answers the collection filtered by the query string
func (c *CollectionController) List(ctx *gin.Context) {
	q := interfaces.ParseListQuery(ctx.Request.URL.Query())
	rctx := ctx.Request.Context()

	var (
		out interface{}
		err error
	)
	switch collection := ctx.Param("collection"); collection {
	case CollectionDevices:
		out, err = nonNil(c.devices.ListDevices(rctx, q))
	case CollectionReadings:
		out, err = nonNil(c.readings.ListReadings(rctx, q))
	default:
		kind, ok := mqtmodels.ParseEquipmentKind(collection)
		if !ok {
			c.fail(ctx, errUnknownCollection)
			return
		}
		out, err = nonNil(c.commands.ListCommands(rctx, kind, q))
	}
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *CollectionController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	rctx := ctx.Request.Context()

	var (
		out interface{}
		err error
	)
	switch collection := ctx.Param("collection"); collection {
	case CollectionDevices:
		out, err = c.devices.GetDevice(rctx, id)
	case CollectionReadings:
		out, err = c.readings.GetReading(rctx, id)
	default:
		kind, ok := mqtmodels.ParseEquipmentKind(collection)
		if !ok {
			c.fail(ctx, errUnknownCollection)
			return
		}
		out, err = c.findCommand(rctx, kind, id)
	}
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, out)
}

// findCommand scans the kind's log; command collections have no point lookup
func (c *CollectionController) findCommand(ctx context.Context, kind mqtmodels.EquipmentKind, id string) (*mqtmodels.Command, error) {
	commands, err := c.commands.ListCommands(ctx, kind, interfaces.ListQuery{})
	if err != nil {
		return nil, err
	}
	for i := range commands {
		if commands[i].ID == id {
			return &commands[i], nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// Create appends a record; the backend assigns the id
func (c *CollectionController) Create(ctx *gin.Context) {
	rctx := ctx.Request.Context()

	var (
		out interface{}
		err error
	)
	switch collection := ctx.Param("collection"); collection {
	case CollectionDevices:
		var body deviceBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err = c.devices.CreateDevice(rctx, body.device(""))
	case CollectionReadings:
		var body readingBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.DeviceID == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "dispositivo_id is required"})
			return
		}
		ts := mqtmodels.FormatTimestamp(c.now())
		if body.Timestamp != "" {
			if ts, err = mqtmodels.NormalizeTimestamp(body.Timestamp); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be RFC 3339"})
				return
			}
		}
		out, err = c.readings.CreateReading(rctx, mqtmodels.Reading{
			DeviceID:        string(body.DeviceID),
			PH:              body.PH.Ptr(),
			DosingActivated: bool(body.DosingActivated),
			Timestamp:       ts,
		})
	default:
		kind, ok := mqtmodels.ParseEquipmentKind(collection)
		if !ok {
			c.fail(ctx, errUnknownCollection)
			return
		}
		var cmd mqtmodels.Command
		if err := ctx.ShouldBindJSON(&cmd); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ID = ""
		out, err = c.commands.CreateCommand(rctx, kind, cmd)
	}
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, out)
}

// Replace overwrites a whole device. Readings and commands are append only.
func (c *CollectionController) Replace(ctx *gin.Context) {
	if !c.mutable(ctx) {
		return
	}
	var body deviceBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := c.devices.UpdateDevice(ctx.Request.Context(), body.device(ctx.Param("id")))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

func (c *CollectionController) Delete(ctx *gin.Context) {
	if !c.mutable(ctx) {
		return
	}
	deleted, err := c.devices.DeleteDevice(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, deleted)
}

// mutable answers for collections that cannot be modified and reports whether
// the request may proceed
func (c *CollectionController) mutable(ctx *gin.Context) bool {
	collection := ctx.Param("collection")
	if collection == CollectionDevices {
		return true
	}
	if _, ok := mqtmodels.ParseEquipmentKind(collection); ok || collection == CollectionReadings {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": collection + " is append only"})
		return false
	}
	c.fail(ctx, errUnknownCollection)
	return false
}

func (c *CollectionController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errUnknownCollection):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, interfaces.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.logger.WithFields(map[string]interface{}{
			"method":     ctx.Request.Method,
			"collection": ctx.Param("collection"),
		}).ErrorWithError(err, "store request failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// nonNil keeps empty collections encoded as [] rather than null
func nonNil[T any](items []T, err error) ([]T, error) {
	if items == nil {
		items = []T{}
	}
	return items, err
}

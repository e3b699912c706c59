package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var (
	errMissingActive = errors.New("activo is required")
	errUnknownAction = errors.New("unknown action")
)

// statusFor maps view and store errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, dashboard.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidAction), errors.Is(err, dashboard.ErrConfirmationRequired):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func abortWithError(ctx *gin.Context, err error) {
	ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Startup/health"
)

// HealthController handles health and metrics requests
type HealthController struct {
	checker *health.HealthChecker
	backend string
}

func NewHealthController(checker *health.HealthChecker, backend string) *HealthController {
	return &HealthController{checker: checker, backend: backend}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": c.backend,
	})
}

// HealthReady pings the backend
func (c *HealthController) HealthReady(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx.Request.Context())
	status["backend"] = c.backend
	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, status)
}

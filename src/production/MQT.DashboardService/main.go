package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	"gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.DashboardService/controllers"
	container "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Container"
	realtime "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Realtime"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewDashboardContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Dashboard Service")

	config := ctr.GetConfig()
	repos := ctr.Repositories()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub := realtime.NewHub(logger)
	defer hub.Close()

	appConfig := dashboard.AppConfig{
		Devices:        repos.Devices,
		Readings:       repos.Readings,
		Commands:       repos.Commands,
		Resolution:     config.Polling.Resolution,
		ControlPeriod:  config.Polling.Control,
		MonitorPeriod:  config.Polling.Monitor,
		FeedPeriod:     config.Polling.Feed,
		AlertPeriod:    config.Polling.Alerts,
		AlertScanEvery: config.Polling.AlertScanEvery,
		CommandPeriod:  config.Polling.Commands,
		Publisher:      hub,
		Logger:         logger,
	}

	// MQTT is optional; the dashboard works without forwarding commands
	outbox, err := ctr.ConnectOutbox(ctx)
	if err != nil {
		logger.WithError(err).Warn("MQTT outbox unavailable, commands will only be stored")
	} else if outbox != nil {
		appConfig.Outbox = outbox
	}

	app := dashboard.NewApp(appConfig)
	app.Start(context.Background())
	app.Scheduler.Start()
	defer app.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	pageController, err := controllers.NewPageController()
	if err != nil {
		logger.FatalWithError(err, "Failed to parse page templates")
	}

	// Create controllers and register routes
	pageController.RegisterRoutes(router)
	controllers.NewDeviceController(app, logger).RegisterRoutes(router)
	controllers.NewMonitorController(app, logger).RegisterRoutes(router)
	controllers.NewWSController(app, hub, logger).RegisterRoutes(router)
	controllers.NewHealthController(ctr.GetHealthChecker()).RegisterRoutes(router)

	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Dashboard service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	realtime "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Realtime"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	"gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Startup/health"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	app    *dashboard.App
	store  *implementation.MemoryStore
	hub    *realtime.Hub
}

// newTestEnv wires every controller over an in-memory store. The tick source is
// never started, so only explicit refreshes run.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	store := implementation.NewMemoryStore()
	hub := realtime.NewHub(log)

	app := dashboard.NewApp(dashboard.AppConfig{
		Devices:        store,
		Readings:       store,
		Commands:       store,
		Resolution:     time.Second,
		ControlPeriod:  time.Hour,
		MonitorPeriod:  time.Hour,
		FeedPeriod:     time.Hour,
		AlertPeriod:    time.Hour,
		AlertScanEvery: 1,
		CommandPeriod:  time.Hour,
		Publisher:      hub,
		Logger:         log,
	})
	app.Start(context.Background())
	t.Cleanup(func() {
		app.Stop()
		hub.Close()
	})

	checker := health.NewHealthChecker()
	checker.Register("memory", store)

	pages, err := NewPageController()
	if err != nil {
		t.Fatalf("NewPageController: %v", err)
	}

	router := gin.New()
	pages.RegisterRoutes(router)
	NewDeviceController(app, log).RegisterRoutes(router)
	NewMonitorController(app, log).RegisterRoutes(router)
	NewWSController(app, hub, log).RegisterRoutes(router)
	NewHealthController(checker).RegisterRoutes(router)

	return &testEnv{router: router, app: app, store: store, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addDevice(t *testing.T, name string, current, target float64) *mqtmodels.Device {
	t.Helper()
	d, err := e.store.CreateDevice(context.Background(), mqtmodels.Device{
		Name:      name,
		Type:      "sensor",
		Location:  "Tanque A",
		State:     mqtmodels.StateActive,
		CurrentPH: mqtmodels.Float(current),
		TargetPH:  mqtmodels.Float(target),
	})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return d
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

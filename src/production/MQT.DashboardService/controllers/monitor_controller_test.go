package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

func TestAlertReflectsRescan(t *testing.T) {
	env := newTestEnv(t)
	env.addDevice(t, "Tanque ácido", 6.2, 7.0)

	if _, err := env.app.Alerts.Rescan(context.Background()); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/alerts", "")
	var alert dashboard.GlobalAlert
	decode(t, rec, &alert)
	if alert.Kind != string(dashboard.ScanCritical) || alert.Device == nil || !alert.OfferDosing {
		t.Fatalf("alert = %+v", alert)
	}
}

func TestDoseFromAlert(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDevice(t, "Tanque", 6.2, 7.0)

	rec := env.do(t, http.MethodPost, "/api/alerts/"+d.ID+"/dosing", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Dosificador activado") {
		t.Errorf("body = %s", rec.Body.String())
	}

	snap := env.app.Feed.Snapshot()
	if len(snap.Rows) != 1 || snap.Rows[0].DeviceID != d.ID {
		t.Errorf("feed not refreshed: %+v", snap)
	}

	if rec := env.do(t, http.MethodPost, "/api/alerts/999/dosing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing device status = %d", rec.Code)
	}
}

func TestExportHistory(t *testing.T) {
	env := newTestEnv(t)
	d := env.addDevice(t, "Tanque", 7.0, 7.0)
	for _, ph := range []float64{7.1, 7.2} {
		if _, err := env.store.CreateReading(context.Background(), mqtmodels.Reading{
			DeviceID:  d.ID,
			PH:        mqtmodels.Float(ph),
			Timestamp: "2024-05-01T10:00:00.000Z",
		}); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/monitor/"+d.ID+"/export.xlsx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Registros")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(rows); got != 7 {
		t.Errorf("rows = %d, want header block plus 2 readings", got)
	}
}

func TestCommands(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/commands/oxigenador", `{"accion":"ENCENDER"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var cmd mqtmodels.Command
	decode(t, rec, &cmd)
	if cmd.Device != "OXIGENADOR" || cmd.User != "Operador" || cmd.Status != mqtmodels.CommandSent {
		t.Errorf("command = %+v", cmd)
	}

	rec = env.do(t, http.MethodGet, "/api/commands/oxigenador", "")
	var history dashboard.CommandHistory
	decode(t, rec, &history)
	if len(history.Commands) != 1 || history.Power != mqtmodels.PowerOn {
		t.Errorf("history = %+v", history)
	}

	if rec := env.do(t, http.MethodPost, "/api/commands/oxigenador", `{"accion":"VOLAR"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid action status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/commands/bomba", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d", rec.Code)
	}
}

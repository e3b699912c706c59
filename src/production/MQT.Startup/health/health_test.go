package health

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestHealthStatus(t *testing.T) {
	h := NewHealthChecker()
	h.Register("store", PingFunc(func(context.Context) error { return nil }))
	if !h.Ready(context.Background()) {
		t.Fatal("expected ready")
	}

	h.Register("mqtt", PingFunc(func(context.Context) error { return errors.New("not connected") }))
	status := h.GetHealthStatus(context.Background())
	if status["status"] != "degraded" {
		t.Errorf("status = %v", status["status"])
	}
	checks := status["checks"].(map[string]interface{})
	mqtt := checks["mqtt"].(map[string]interface{})
	if mqtt["status"] != "error" || mqtt["error"] != "not connected" {
		t.Errorf("mqtt check = %v", mqtt)
	}
	if h.Ready(context.Background()) {
		t.Error("expected not ready")
	}
}

func TestSchemaHasNoReadingForeignKey(t *testing.T) {
	for _, stmt := range Schema {
		if strings.Contains(stmt, "REFERENCES") {
			t.Errorf("unexpected foreign key in %s", stmt)
		}
	}
	if len(Schema) != 4 {
		t.Errorf("schema statements = %d", len(Schema))
	}
}

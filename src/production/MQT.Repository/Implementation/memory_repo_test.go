package implementation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

func seedReadings(t *testing.T, store *MemoryStore, deviceID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.CreateReading(context.Background(), mqtmodels.Reading{
			DeviceID:  deviceID,
			PH:        mqtmodels.Float(7 + float64(i)/100),
			Timestamp: fmt.Sprintf("2024-05-01T10:00:%02d.000Z", i),
		})
		if err != nil {
			t.Fatalf("seed reading: %v", err)
		}
	}
}

func TestMemoryStoreDeviceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateDevice(ctx, mqtmodels.Device{Name: "Tanque A", State: mqtmodels.StateInactive})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an assigned id")
	}

	created.State = mqtmodels.StateActive
	if _, err := store.UpdateDevice(ctx, *created); err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}
	got, err := store.GetDevice(ctx, created.ID)
	if err != nil || got.State != mqtmodels.StateActive {
		t.Fatalf("GetDevice after update: %+v, %v", got, err)
	}

	if _, err := store.DeleteDevice(ctx, created.ID); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if _, err := store.GetDevice(ctx, created.ID); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := store.UpdateDevice(ctx, *created); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("update of deleted device should be not found, got %v", err)
	}
}

func TestMemoryStoreReadingQueries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedReadings(t, store, "1", 15)
	seedReadings(t, store, "2", 3)

	latest, err := store.ListReadings(ctx, interfaces.ListQuery{SortBy: "timestamp", Order: "desc", Limit: 10}.ForDevice("1"))
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if len(latest) != 10 {
		t.Fatalf("expected 10 readings, got %d", len(latest))
	}
	if latest[0].Timestamp != "2024-05-01T10:00:14.000Z" {
		t.Fatalf("newest first expected, got %s", latest[0].Timestamp)
	}
	for _, r := range latest {
		if r.DeviceID != "1" {
			t.Fatalf("filter leaked reading for device %s", r.DeviceID)
		}
	}

	all, _ := store.ListReadings(ctx, interfaces.ListQuery{SortBy: "timestamp", Order: "asc"})
	if len(all) != 18 {
		t.Fatalf("expected 18 readings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timestamp > all[i].Timestamp {
			t.Fatalf("ascending order broken at %d", i)
		}
	}
}

func TestMemoryStoreCommandsSortByIDNumerically(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i := 0; i < 12; i++ {
		if _, err := store.CreateCommand(ctx, mqtmodels.KindSkimmer, mqtmodels.Command{Action: mqtmodels.ActionOn}); err != nil {
			t.Fatalf("CreateCommand: %v", err)
		}
	}
	recent, _ := store.ListCommands(ctx, mqtmodels.KindSkimmer, interfaces.ListQuery{SortBy: "id", Order: "desc", Limit: 5})
	if len(recent) != 5 || recent[0].ID != "12" || recent[4].ID != "8" {
		t.Fatalf("unexpected recent commands %+v", recent)
	}
	if other, _ := store.ListCommands(ctx, mqtmodels.KindDoser, interfaces.ListQuery{}); len(other) != 0 {
		t.Fatalf("kinds must not share a log")
	}
}

func TestApplyQueryIgnoresUnknownSortAndFilter(t *testing.T) {
	devices := []mqtmodels.Device{{ID: "1", Name: "b"}, {ID: "2", Name: "a"}}
	out := applyQuery(devices, interfaces.ListQuery{SortBy: "color", Filters: map[string]string{"color": "red"}}, deviceField)
	if len(out) != 2 || out[0].ID != "1" {
		t.Fatalf("unknown sort/filter should keep insertion order, got %+v", out)
	}
	out = applyQuery(devices, interfaces.ListQuery{Order: "desc"}, deviceField)
	if out[0].ID != "2" {
		t.Fatalf("desc without sortBy should reverse insertion order")
	}
}

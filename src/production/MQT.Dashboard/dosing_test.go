package dashboard

import (
	"context"
	"testing"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

func TestDosingCreatesOneReading(t *testing.T) {
	ctx := context.Background()
	store := implementation.NewMemoryStore()
	d := addDevice(t, store, "Tanque", 6.2, 7.0)
	before, _ := store.GetDevice(ctx, d.ID)

	outbox := &recordingOutbox{}
	clock := fixedClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := NewDosingService(store, store, logger.Nop(), WithOutbox(outbox), WithClock(clock))

	reading, err := svc.Activate(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reading.DeviceID != d.ID || !reading.DosingActivated || reading.PH == nil || *reading.PH != 6.2 {
		t.Errorf("unexpected reading %+v", reading)
	}
	if reading.Timestamp != "2024-05-01T10:00:00.000Z" {
		t.Errorf("timestamp = %q", reading.Timestamp)
	}

	all, _ := store.ListReadings(ctx, interfaces.ListQuery{})
	if len(all) != 1 {
		t.Errorf("readings = %d, want 1", len(all))
	}

	after, _ := store.GetDevice(ctx, d.ID)
	if after.Name != before.Name || after.State != before.State ||
		*after.CurrentPH != *before.CurrentPH || *after.TargetPH != *before.TargetPH {
		t.Errorf("device changed: %+v -> %+v", before, after)
	}

	if topics := outbox.Topics(); len(topics) != 1 || topics[0] != "devices/"+d.ID+"/dosing" {
		t.Errorf("topics = %v", topics)
	}
}

func TestDosingOutboxFailureIsNotFatal(t *testing.T) {
	store := implementation.NewMemoryStore()
	d := addDevice(t, store, "Tanque", 6.2, 7.0)
	svc := NewDosingService(store, store, logger.Nop(), WithOutbox(&recordingOutbox{err: errBoom}))

	if _, err := svc.Activate(context.Background(), d.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
}

func TestDosingUnknownDevice(t *testing.T) {
	ctx := context.Background()
	store := implementation.NewMemoryStore()
	svc := NewDosingService(store, store, logger.Nop())

	if _, err := svc.Activate(ctx, "42"); err == nil {
		t.Fatal("expected an error")
	}
	all, _ := store.ListReadings(ctx, interfaces.ListQuery{})
	if len(all) != 0 {
		t.Errorf("readings = %d, want 0", len(all))
	}
}

func TestDosingMessage(t *testing.T) {
	if got := DosingMessage(&mqtmodels.Device{Name: "A"}); got != "Dosificador activado para A." {
		t.Errorf("got %q", got)
	}
	if got := DosingMessage(nil); got != "Dosificador activado: se generó un registro." {
		t.Errorf("got %q", got)
	}
}

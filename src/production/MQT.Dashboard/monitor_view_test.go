package dashboard

import (
	"context"
	"testing"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
)

func TestMonitorSeriesAndTable(t *testing.T) {
	ctx := context.Background()
	sched := newTestScheduler(t)
	store := implementation.NewMemoryStore()
	a := addDevice(t, store, "A", 7.0, 7.0)
	b := addDevice(t, store, "B", 7.0, 7.0)
	addReadings(t, store, a.ID, 120)
	addReadings(t, store, b.ID, 3)

	v := NewMonitorView(sched, store, store, sched.resolution, nil, logger.Nop())
	t.Cleanup(v.Stop)
	if err := v.Start(ctx); err != nil {
		t.Fatal(err)
	}

	snap := v.Snapshot()
	if snap.DeviceID != a.ID || len(snap.Devices) != 2 {
		t.Fatalf("first device should be selected, got %+v", snap)
	}
	if len(snap.Chart.Labels) != 100 || len(snap.Chart.Data) != 100 {
		t.Fatalf("series = %d/%d, want 100", len(snap.Chart.Labels), len(snap.Chart.Data))
	}
	if want := 7 + float64(20%50)/100; *snap.Chart.Data[0] != want {
		t.Errorf("series should start at reading 20, got %v", *snap.Chart.Data[0])
	}
	if len(snap.Table) != 10 {
		t.Fatalf("table = %d rows, want 10", len(snap.Table))
	}
	if snap.Table[0].Timestamp != "2024-05-01T10:01:59.000Z" || snap.Table[9].Timestamp != "2024-05-01T10:01:50.000Z" {
		t.Errorf("table should be newest first: %s .. %s", snap.Table[0].Timestamp, snap.Table[9].Timestamp)
	}

	chart := v.Chart()
	rev := snap.Chart.Revision
	snap, err := v.Select(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Chart() != chart {
		t.Error("chart instance replaced on selection change")
	}
	if snap.Chart.Revision != rev+1 || len(snap.Chart.Labels) != 3 || len(snap.Table) != 3 {
		t.Errorf("unexpected snapshot after switching: %+v", snap)
	}
	if sched.Len() != 1 {
		t.Errorf("live tasks = %d, want 1", sched.Len())
	}
}

func TestMonitorNoDevices(t *testing.T) {
	sched := newTestScheduler(t)
	v := NewMonitorView(sched, implementation.NewMemoryStore(), implementation.NewMemoryStore(), sched.resolution, nil, logger.Nop())
	if err := v.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if snap := v.Snapshot(); snap.DeviceID != "" || len(snap.Devices) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if sched.Len() != 0 {
		t.Errorf("live tasks = %d", sched.Len())
	}
}

func TestMonitorDeviceListFailure(t *testing.T) {
	sched := newTestScheduler(t)
	v := NewMonitorView(sched, failingDevices{}, implementation.NewMemoryStore(), sched.resolution, nil, logger.Nop())
	if err := v.Start(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if snap := v.Snapshot(); snap.Error == "" {
		t.Error("error not rendered")
	}
}

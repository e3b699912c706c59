package dashboard

import (
	"context"
	"testing"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

func startFeed(t *testing.T, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository) *RegistroFeed {
	t.Helper()
	sched := newTestScheduler(t)
	f := NewRegistroFeed(sched, devices, readings, sched.resolution, nil, logger.Nop())
	f.Start(context.Background())
	t.Cleanup(f.Stop)
	return f
}

func addOrphan(t *testing.T, store *implementation.MemoryStore) {
	t.Helper()
	_, err := store.CreateReading(context.Background(), mqtmodels.Reading{
		DeviceID:  "99",
		PH:        mqtmodels.Float(6.0),
		Timestamp: "2024-05-01T11:00:00.000Z",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFeedJoinsDevicesAndDropsOrphans(t *testing.T) {
	store := implementation.NewMemoryStore()
	a := addDevice(t, store, "A", 7.0, 7.0)
	addReadings(t, store, a.ID, 3)
	addOrphan(t, store)

	snap := startFeed(t, store, store).Snapshot()
	if len(snap.Rows) != 3 || snap.Message != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	row := snap.Rows[0]
	if row.DeviceName != "A" || row.Location != "tanque" || row.PH != "7.02" || row.StatusLabel != "normal" || row.Dosing != "No" {
		t.Errorf("row = %+v", row)
	}
}

func TestFeedLimit(t *testing.T) {
	store := implementation.NewMemoryStore()
	a := addDevice(t, store, "A", 7.0, 7.0)
	addReadings(t, store, a.ID, 15)

	if rows := startFeed(t, store, store).Snapshot().Rows; len(rows) != 10 {
		t.Errorf("rows = %d, want 10", len(rows))
	}
}

func TestFeedMessages(t *testing.T) {
	empty := implementation.NewMemoryStore()
	if got := startFeed(t, empty, empty).Snapshot().Message; got != msgNoReadings {
		t.Errorf("empty feed message = %q", got)
	}

	orphans := implementation.NewMemoryStore()
	addOrphan(t, orphans)
	if got := startFeed(t, orphans, orphans).Snapshot().Message; got != msgNoValidReadings {
		t.Errorf("orphan feed message = %q", got)
	}

	snap := startFeed(t, empty, failingReadings{}).Snapshot()
	if !snap.Error || snap.Message != msgReadingsFailed {
		t.Errorf("failed feed = %+v", snap)
	}
}

func TestFeedEmptySkipsDeviceFetch(t *testing.T) {
	empty := implementation.NewMemoryStore()
	devices := &countingDevices{DeviceRepository: empty}
	devices.fail.Store(true)

	snap := startFeed(t, devices, empty).Snapshot()
	if snap.Error || snap.Message != msgNoReadings {
		t.Errorf("empty feed = %+v", snap)
	}
	if n := devices.lists.Load(); n != 0 {
		t.Errorf("device list fetched %d times", n)
	}
}

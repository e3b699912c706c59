package mqtingestor

import (
	"context"
	"errors"
	"testing"
	"time"

	config "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Config"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var received = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestIngestor(t *testing.T) (*Ingestor, *implementation.MemoryStore) {
	t.Helper()
	store := implementation.NewMemoryStore()
	cfg := config.IngestorConfig{Batch: config.BatchConfig{Size: 10, Window: 50 * time.Millisecond}}
	ing := New(cfg, store, store, logger.Nop())
	ing.now = func() time.Time { return received }
	return ing, store
}

func TestProcessBatchStoresKnownDevices(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx := context.Background()
	d, _ := store.CreateDevice(ctx, mqtmodels.Device{Name: "Tanque"})

	stored := ing.processBatch(ctx, []PHSample{
		{DeviceID: d.ID, PH: 7.1, ReceivedAt: received},
		{DeviceID: "404", PH: 6.0, ReceivedAt: received},
		{DeviceID: d.ID, PH: 7.2, ReceivedAt: received.Add(time.Second)},
	})
	if stored != 2 {
		t.Fatalf("stored = %d, want 2", stored)
	}

	readings, _ := store.ListReadings(ctx, interfaces.ListQuery{SortBy: "timestamp"}.ForDevice(d.ID))
	if len(readings) != 2 {
		t.Fatalf("readings = %+v", readings)
	}
	r := readings[1]
	if *r.PH != 7.2 || r.DosingActivated || r.Timestamp != "2024-05-01T10:00:01.000Z" {
		t.Errorf("reading = %+v", r)
	}
}

type brokenDevices struct {
	interfaces.DeviceRepository
}

func (brokenDevices) GetDevice(context.Context, string) (*mqtmodels.Device, error) {
	return nil, errors.New("store down")
}

func TestProcessBatchSkipsOnValidationError(t *testing.T) {
	store := implementation.NewMemoryStore()
	ing := New(config.IngestorConfig{}, brokenDevices{}, store, logger.Nop())

	if stored := ing.processBatch(context.Background(), []PHSample{{DeviceID: "1", PH: 7}}); stored != 0 {
		t.Errorf("stored = %d", stored)
	}
}

func TestHandleQueuesAndBatchWriterFlushes(t *testing.T) {
	ing, store := newTestIngestor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d, _ := store.CreateDevice(ctx, mqtmodels.Device{Name: "Tanque"})

	ing.wg.Add(1)
	go func() {
		defer ing.wg.Done()
		ing.batchWriter(ctx)
	}()

	ing.handle("acuario/"+d.ID+"/ph", []byte(`{"ph": 7.3}`))
	ing.handle("acuario/"+d.ID+"/ph", []byte(`not a number`))
	ing.handle("bad/topic", []byte(`7`))
	ing.Stop()

	readings, _ := store.ListReadings(ctx, interfaces.ListQuery{})
	if len(readings) != 1 || *readings[0].PH != 7.3 || readings[0].DeviceID != d.ID {
		t.Fatalf("readings = %+v", readings)
	}

	// messages after Stop are ignored
	ing.handle("acuario/"+d.ID+"/ph", []byte(`7`))
	ing.Stop()
}

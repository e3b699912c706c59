package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	implementation "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

var errBoom = errors.New("boom")

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.data = append(p.data, data)
}

func (p *recordingPublisher) alerts() []GlobalAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []GlobalAlert
	for i, e := range p.events {
		if e == EventAlerts {
			out = append(out, p.data[i].(GlobalAlert))
		}
	}
	return out
}

// recordingOutbox keeps every published topic
type recordingOutbox struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (o *recordingOutbox) Publish(ctx context.Context, topic string, payload interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.topics = append(o.topics, topic)
	return o.err
}

func (o *recordingOutbox) Topics() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.topics...)
}

// countingDevices counts list calls on top of a real repository
type countingDevices struct {
	interfaces.DeviceRepository
	lists atomic.Int32
	fail  atomic.Bool
}

func (c *countingDevices) ListDevices(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Device, error) {
	c.lists.Add(1)
	if c.fail.Load() {
		return nil, errBoom
	}
	return c.DeviceRepository.ListDevices(ctx, q)
}

// failingDevices fails every call
type failingDevices struct {
	interfaces.DeviceRepository
}

func (failingDevices) ListDevices(context.Context, interfaces.ListQuery) ([]mqtmodels.Device, error) {
	return nil, errBoom
}

func (failingDevices) GetDevice(context.Context, string) (*mqtmodels.Device, error) {
	return nil, errBoom
}

func (failingDevices) CreateDevice(context.Context, mqtmodels.Device) (*mqtmodels.Device, error) {
	return nil, errBoom
}

func (failingDevices) UpdateDevice(context.Context, mqtmodels.Device) (*mqtmodels.Device, error) {
	return nil, errBoom
}

// failingReadings fails every list call
type failingReadings struct {
	interfaces.ReadingRepository
}

func (failingReadings) ListReadings(context.Context, interfaces.ListQuery) ([]mqtmodels.Reading, error) {
	return nil, errBoom
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(time.Second, logger.Nop())
	t.Cleanup(s.Stop)
	return s
}

func addDevice(t *testing.T, store *implementation.MemoryStore, name string, current, target float64) *mqtmodels.Device {
	t.Helper()
	d, err := store.CreateDevice(context.Background(), mqtmodels.Device{
		Name:      name,
		Type:      "sensor",
		Location:  "tanque",
		State:     mqtmodels.StateActive,
		CurrentPH: mqtmodels.Float(current),
		TargetPH:  mqtmodels.Float(target),
	})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}
	return d
}

func addReadings(t *testing.T, store *implementation.MemoryStore, deviceID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.CreateReading(context.Background(), mqtmodels.Reading{
			DeviceID:  deviceID,
			PH:        mqtmodels.Float(7 + float64(i%50)/100),
			Timestamp: fmt.Sprintf("2024-05-01T10:%02d:%02d.000Z", i/60, i%60),
		})
		if err != nil {
			t.Fatalf("create reading: %v", err)
		}
	}
}

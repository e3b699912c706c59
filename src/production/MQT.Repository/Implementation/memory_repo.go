package implementation

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// MemoryStore keeps every collection in process memory. Ids are sequential integers
// rendered as strings, like the hosted mock API hands out.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	devices  []mqtmodels.Device
	readings []mqtmodels.Reading
	commands map[mqtmodels.EquipmentKind][]mqtmodels.Command
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{commands: make(map[mqtmodels.EquipmentKind][]mqtmodels.Command)}
}

func (m *MemoryStore) newID() string {
	m.nextID++
	return strconv.FormatInt(m.nextID, 10)
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) ListDevices(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return applyQuery(m.devices, q, deviceField), nil
}

func (m *MemoryStore) GetDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *MemoryStore) CreateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	device.ID = m.newID()
	m.devices = append(m.devices, device)
	return &device, nil
}

func (m *MemoryStore) UpdateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.devices {
		if m.devices[i].ID == device.ID {
			m.devices[i] = device
			return &device, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *MemoryStore) DeleteDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.devices {
		if d.ID == id {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			return &d, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *MemoryStore) ListReadings(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return applyQuery(m.readings, q, readingField), nil
}

func (m *MemoryStore) GetReading(ctx context.Context, id string) (*mqtmodels.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.readings {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *MemoryStore) CreateReading(ctx context.Context, reading mqtmodels.Reading) (*mqtmodels.Reading, error) {
	if reading.DeviceID == "" {
		return nil, fmt.Errorf("dispositivo_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reading.ID = m.newID()
	m.readings = append(m.readings, reading)
	return &reading, nil
}

func (m *MemoryStore) ListCommands(ctx context.Context, kind mqtmodels.EquipmentKind, q interfaces.ListQuery) ([]mqtmodels.Command, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return applyQuery(m.commands[kind], q, commandField), nil
}

func (m *MemoryStore) CreateCommand(ctx context.Context, kind mqtmodels.EquipmentKind, cmd mqtmodels.Command) (*mqtmodels.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd.ID = m.newID()
	m.commands[kind] = append(m.commands[kind], cmd)
	return &cmd, nil
}

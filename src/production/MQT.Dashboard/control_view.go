package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

const controlReadingsLimit = 10

// ErrNoSelection is returned by actions that need a selected device
var ErrNoSelection = errors.New("no device selected")

// ControlSnapshot is the rendered control panel
type ControlSnapshot struct {
	DeviceID      string            `json:"device_id"`
	Device        *mqtmodels.Device `json:"device,omitempty"`
	CurrentPH     string            `json:"ph_actual"`
	TargetPH      string            `json:"ph_objetivo"`
	Active        bool              `json:"active"`
	StateLabel    string            `json:"state_label"`
	Readings      []ReadingRow      `json:"readings"`
	ReadingsError string            `json:"readings_error,omitempty"`
	Alert         *RangeAlert       `json:"alert,omitempty"`
	Error         string            `json:"error,omitempty"`
	Seq           uint64            `json:"seq"`
}

// ControlView is the per-device live panel. It owns exactly one refresh task,
// scoped to the current selection.
type ControlView struct {
	sched     *Scheduler
	devices   interfaces.DeviceRepository
	readings  interfaces.ReadingRepository
	dosing    *DosingService
	period    time.Duration
	publisher Publisher
	logger    *logger.Logger

	selectMu sync.Mutex

	mu       sync.RWMutex
	task     *TaskHandle
	selected string
	snapshot ControlSnapshot
}

func NewControlView(sched *Scheduler, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, dosing *DosingService, period time.Duration, publisher Publisher, log *logger.Logger) *ControlView {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ControlView{
		sched:     sched,
		devices:   devices,
		readings:  readings,
		dosing:    dosing,
		period:    period,
		publisher: publisher,
		logger:    log.WithComponent("control_view"),
	}
}

// Start does nothing until a device is selected
func (v *ControlView) Start(ctx context.Context) {}

// Stop cancels the refresh task of the current selection
func (v *ControlView) Stop() {
	v.selectMu.Lock()
	defer v.selectMu.Unlock()
	v.swapTask("", nil).Cancel()
}

// Selected returns the id of the selected device, "" when none
func (v *ControlView) Selected() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selected
}

// Snapshot returns the last rendered panel
func (v *ControlView) Snapshot() ControlSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Select switches the panel to id. The previous selection's task is cancelled
// before the new one is scheduled; an empty id just clears the panel.
func (v *ControlView) Select(ctx context.Context, id string) (ControlSnapshot, error) {
	v.selectMu.Lock()
	defer v.selectMu.Unlock()

	v.swapTask(id, nil).Cancel()
	if id == "" {
		v.setSnapshot(ControlSnapshot{})
		return ControlSnapshot{}, nil
	}

	h := v.sched.Schedule("control:"+id, v.period, func(ctx context.Context, h *TaskHandle, c Cycle) error {
		return v.refresh(ctx, h, c, id)
	}, false)
	v.swapTask(id, h)

	err := h.Run(ctx)
	return v.Snapshot(), err
}

// swapTask installs h and returns the task it replaced
func (v *ControlView) swapTask(id string, h *TaskHandle) *TaskHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.task
	v.task = h
	v.selected = id
	return prev
}

func (v *ControlView) setSnapshot(s ControlSnapshot) {
	v.mu.Lock()
	v.snapshot = s
	v.mu.Unlock()
	v.publisher.Publish(EventControl, s)
}

func (v *ControlView) refresh(ctx context.Context, h *TaskHandle, c Cycle, id string) error {
	device, err := v.devices.GetDevice(ctx, id)
	if err != nil {
		h.Commit(c.Seq, func() {
			v.setSnapshot(ControlSnapshot{DeviceID: id, Error: "Error al cargar dispositivo: " + err.Error(), Seq: c.Seq})
		})
		return fmt.Errorf("fetch device %s: %w", id, err)
	}

	snap := controlSnapshot(device)
	snap.Seq = c.Seq

	latest, err := v.readings.ListReadings(ctx, interfaces.ListQuery{
		SortBy: "timestamp",
		Order:  interfaces.OrderDesc,
		Limit:  controlReadingsLimit,
	}.ForDevice(id))
	if err != nil {
		snap.ReadingsError = "Error al cargar registros"
	} else {
		snap.Readings = readingRows(latest)
	}

	h.Commit(c.Seq, func() { v.setSnapshot(snap) })
	if err != nil {
		return fmt.Errorf("fetch readings for %s: %w", id, err)
	}
	return nil
}

func controlSnapshot(device *mqtmodels.Device) ControlSnapshot {
	return ControlSnapshot{
		DeviceID:   device.ID,
		Device:     device,
		CurrentPH:  FormatPH(device.CurrentPH),
		TargetPH:   FormatPH(device.TargetPH),
		Active:     device.IsActive(),
		StateLabel: stateLabel(device.State),
		Readings:   []ReadingRow{},
		Alert:      EvaluateRange(device.CurrentPH, device.TargetPH),
	}
}

func stateLabel(s mqtmodels.DeviceState) string {
	if s == mqtmodels.StateActive {
		return "Activo"
	}
	return "Inactivo"
}

// SetActive persists the new state by replacing the whole device record
func (v *ControlView) SetActive(ctx context.Context, active bool) (*mqtmodels.Device, error) {
	id := v.Selected()
	if id == "" {
		return nil, ErrNoSelection
	}

	updated, err := SetDeviceActive(ctx, v.devices, id, active)
	if err != nil {
		v.logger.WithDevice(id).ErrorWithError(err, "failed to update device state")
		return nil, err
	}

	v.mu.Lock()
	if v.selected == id && v.snapshot.DeviceID == id {
		v.snapshot.Active = updated.IsActive()
		v.snapshot.StateLabel = stateLabel(updated.State)
		v.snapshot.Device = updated
	}
	snap := v.snapshot
	v.mu.Unlock()
	v.publisher.Publish(EventControl, snap)

	v.logger.WithDevice(id).WithField("estado", updated.State).Info("device state changed")
	return updated, nil
}

// SetDeviceActive re-fetches a device and replaces the whole record with the new state
func SetDeviceActive(ctx context.Context, devices interfaces.DeviceRepository, id string, active bool) (*mqtmodels.Device, error) {
	device, err := devices.GetDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch device %s: %w", id, err)
	}
	device.State = mqtmodels.StateInactive
	if active {
		device.State = mqtmodels.StateActive
	}
	updated, err := devices.UpdateDevice(ctx, *device)
	if err != nil {
		return nil, fmt.Errorf("update device %s: %w", id, err)
	}
	return updated, nil
}

// ActivateDosing appends a dosing reading for the selected device and refreshes the panel
func (v *ControlView) ActivateDosing(ctx context.Context) (*mqtmodels.Reading, error) {
	v.mu.RLock()
	id, task := v.selected, v.task
	v.mu.RUnlock()
	if id == "" {
		return nil, ErrNoSelection
	}

	reading, err := v.dosing.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	if task != nil {
		task.Trigger()
	}
	return reading, nil
}

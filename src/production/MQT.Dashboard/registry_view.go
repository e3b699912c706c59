package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// ErrConfirmationRequired is returned when a delete was not confirmed by the operator
var ErrConfirmationRequired = errors.New("delete requires confirmation")

// RegistryTable is the rendered device list
type RegistryTable struct {
	Devices []mqtmodels.Device `json:"devices"`
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// SaveError is surfaced to the operator as a blocking message; Form is echoed back
// so the form stays open for retry.
type SaveError struct {
	Form DeviceForm
	Err  error
}

func (e *SaveError) Error() string {
	return "Error al guardar: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// RegistryView is the device CRUD screen. Every mutation re-fetches the full list.
type RegistryView struct {
	devices   interfaces.DeviceRepository
	publisher Publisher
	logger    *logger.Logger

	mu    sync.RWMutex
	table RegistryTable
}

func NewRegistryView(devices interfaces.DeviceRepository, publisher Publisher, log *logger.Logger) *RegistryView {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &RegistryView{
		devices:   devices,
		publisher: publisher,
		logger:    log.WithComponent("registry_view"),
	}
}

// Start renders the initial list
func (v *RegistryView) Start(ctx context.Context) {
	v.Refresh(ctx)
}

// Stop is a no-op; the registry owns no poll task
func (v *RegistryView) Stop() {}

// Table returns the last rendered list
func (v *RegistryView) Table() RegistryTable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.table
}

// Refresh re-fetches all devices. A failed fetch renders a single inline error row.
func (v *RegistryView) Refresh(ctx context.Context) RegistryTable {
	var table RegistryTable
	devices, err := v.devices.ListDevices(ctx, interfaces.ListQuery{})
	switch {
	case err != nil:
		v.logger.ErrorWithError(err, "failed to list devices")
		table = RegistryTable{Devices: []mqtmodels.Device{}, Error: "Error: " + err.Error()}
	case len(devices) == 0:
		table = RegistryTable{Devices: []mqtmodels.Device{}, Message: "No hay dispositivos"}
	default:
		table = RegistryTable{Devices: devices}
	}

	v.mu.Lock()
	v.table = table
	v.mu.Unlock()
	v.publisher.Publish(EventRegistry, table)
	return table
}

// Save creates the device when the form has no id and replaces it otherwise
func (v *RegistryView) Save(ctx context.Context, form DeviceForm) (*mqtmodels.Device, error) {
	device := ParseDeviceForm(form)

	var (
		saved *mqtmodels.Device
		err   error
	)
	if device.ID == "" {
		saved, err = v.devices.CreateDevice(ctx, device)
	} else {
		saved, err = v.devices.UpdateDevice(ctx, device)
	}
	if err != nil {
		v.logger.WithDevice(device.ID).ErrorWithError(err, "failed to save device")
		return nil, &SaveError{Form: form, Err: err}
	}

	v.logger.WithDevice(saved.ID).Info("device saved")
	v.Refresh(ctx)
	return saved, nil
}

// Edit loads one device into the form
func (v *RegistryView) Edit(ctx context.Context, id string) (DeviceForm, error) {
	device, err := v.devices.GetDevice(ctx, id)
	if err != nil {
		return DeviceForm{}, fmt.Errorf("load device %s: %w", id, err)
	}
	return FormFromDevice(*device), nil
}

// Delete removes a device once the operator confirmed
func (v *RegistryView) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if _, err := v.devices.DeleteDevice(ctx, id); err != nil {
		v.logger.WithDevice(id).ErrorWithError(err, "failed to delete device")
		return fmt.Errorf("delete device %s: %w", id, err)
	}
	v.logger.WithDevice(id).Info("device deleted")
	v.Refresh(ctx)
	return nil
}

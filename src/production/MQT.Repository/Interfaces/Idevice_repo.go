package interfaces

import (
	"context"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

type DeviceRepository interface {
	// Read devices
	ListDevices(ctx context.Context, q ListQuery) ([]mqtmodels.Device, error)
	GetDevice(ctx context.Context, id string) (*mqtmodels.Device, error)

	// Create device; the store assigns the id
	CreateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error)

	// Update replaces the whole record identified by device.ID
	UpdateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error)

	// Delete device, returning the removed record
	DeleteDevice(ctx context.Context, id string) (*mqtmodels.Device, error)
}

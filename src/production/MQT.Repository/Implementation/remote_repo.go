package implementation

import (
	"context"
	"fmt"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
	transport "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Transport"
)

const (
	devicesPath  = "/dispositivos"
	readingsPath = "/registros"
)

// RemoteDeviceRepository reads and writes devices through the store's HTTP contract
type RemoteDeviceRepository struct {
	client *transport.Client
}

func NewRemoteDeviceRepository(client *transport.Client) *RemoteDeviceRepository {
	return &RemoteDeviceRepository{client: client}
}

func (r *RemoteDeviceRepository) ListDevices(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Device, error) {
	var devices []mqtmodels.Device
	if err := r.client.Get(ctx, devicesPath, toTransportQuery(q), &devices); err != nil {
		return nil, remoteErr(err)
	}
	return devices, nil
}

func (r *RemoteDeviceRepository) GetDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	var device mqtmodels.Device
	if err := r.client.Get(ctx, devicesPath+"/"+transport.PathEscape(id), nil, &device); err != nil {
		return nil, remoteErr(err)
	}
	return &device, nil
}

func (r *RemoteDeviceRepository) CreateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	device.ID = ""
	var created mqtmodels.Device
	if err := r.client.Post(ctx, devicesPath, newDevicePayload(device), &created); err != nil {
		return nil, remoteErr(err)
	}
	return &created, nil
}

func (r *RemoteDeviceRepository) UpdateDevice(ctx context.Context, device mqtmodels.Device) (*mqtmodels.Device, error) {
	var updated mqtmodels.Device
	if err := r.client.Put(ctx, devicesPath+"/"+transport.PathEscape(device.ID), device, &updated); err != nil {
		return nil, remoteErr(err)
	}
	return &updated, nil
}

func (r *RemoteDeviceRepository) DeleteDevice(ctx context.Context, id string) (*mqtmodels.Device, error) {
	var deleted mqtmodels.Device
	if err := r.client.Delete(ctx, devicesPath+"/"+transport.PathEscape(id), &deleted); err != nil {
		return nil, remoteErr(err)
	}
	return &deleted, nil
}

// RemoteReadingRepository appends and queries readings through the store's HTTP contract
type RemoteReadingRepository struct {
	client *transport.Client
}

func NewRemoteReadingRepository(client *transport.Client) *RemoteReadingRepository {
	return &RemoteReadingRepository{client: client}
}

func (r *RemoteReadingRepository) ListReadings(ctx context.Context, q interfaces.ListQuery) ([]mqtmodels.Reading, error) {
	var readings []mqtmodels.Reading
	if err := r.client.Get(ctx, readingsPath, toTransportQuery(q), &readings); err != nil {
		return nil, remoteErr(err)
	}
	return readings, nil
}

func (r *RemoteReadingRepository) GetReading(ctx context.Context, id string) (*mqtmodels.Reading, error) {
	var reading mqtmodels.Reading
	if err := r.client.Get(ctx, readingsPath+"/"+transport.PathEscape(id), nil, &reading); err != nil {
		return nil, remoteErr(err)
	}
	return &reading, nil
}

func (r *RemoteReadingRepository) CreateReading(ctx context.Context, reading mqtmodels.Reading) (*mqtmodels.Reading, error) {
	var created mqtmodels.Reading
	if err := r.client.Post(ctx, readingsPath, newReadingPayload(reading), &created); err != nil {
		return nil, remoteErr(err)
	}
	return &created, nil
}

// RemoteCommandRepository keeps the equipment command logs in per-kind collections
type RemoteCommandRepository struct {
	client *transport.Client
}

func NewRemoteCommandRepository(client *transport.Client) *RemoteCommandRepository {
	return &RemoteCommandRepository{client: client}
}

func (r *RemoteCommandRepository) ListCommands(ctx context.Context, kind mqtmodels.EquipmentKind, q interfaces.ListQuery) ([]mqtmodels.Command, error) {
	var commands []mqtmodels.Command
	if err := r.client.Get(ctx, "/"+string(kind), toTransportQuery(q), &commands); err != nil {
		return nil, remoteErr(err)
	}
	return commands, nil
}

func (r *RemoteCommandRepository) CreateCommand(ctx context.Context, kind mqtmodels.EquipmentKind, cmd mqtmodels.Command) (*mqtmodels.Command, error) {
	var created mqtmodels.Command
	if err := r.client.Post(ctx, "/"+string(kind), newCommandPayload(cmd), &created); err != nil {
		return nil, remoteErr(err)
	}
	return &created, nil
}

func toTransportQuery(q interfaces.ListQuery) *transport.Query {
	return &transport.Query{
		SortBy:  q.SortBy,
		Order:   q.Order,
		Limit:   q.Limit,
		Filters: q.Filters,
	}
}

// remoteErr maps a 404 from the store onto ErrNotFound
func remoteErr(err error) error {
	if transport.IsNotFound(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrNotFound, err)
	}
	return err
}

package dashboard

import (
	"context"
	"fmt"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// DosingCommand is the message sent to the device's doser when dosing is activated
type DosingCommand struct {
	DeviceID  string   `json:"dispositivo_id"`
	PH        *float64 `json:"ph"`
	ReadingID string   `json:"registro_id"`
	Timestamp string   `json:"timestamp"`
}

// DosingService appends a dosing Reading for a device. It never writes the Device.
type DosingService struct {
	devices  interfaces.DeviceRepository
	readings interfaces.ReadingRepository
	outbox   Outbox
	clock    Clock
	logger   *logger.Logger
}

// DosingOption customizes the dosing service.
type DosingOption func(*DosingService)

// WithOutbox forwards each activation to the devices.
func WithOutbox(outbox Outbox) DosingOption {
	return func(s *DosingService) {
		if outbox != nil {
			s.outbox = outbox
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) DosingOption {
	return func(s *DosingService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewDosingService(devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, log *logger.Logger, opts ...DosingOption) *DosingService {
	s := &DosingService{
		devices:  devices,
		readings: readings,
		outbox:   nopOutbox{},
		clock:    systemClock{},
		logger:   log.WithComponent("dosing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Activate records one dosing event carrying the device's current pH
func (s *DosingService) Activate(ctx context.Context, deviceID string) (reading *mqtmodels.Reading, err error) {
	defer func() { metrics.IncDosing(err) }()

	device, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("load device %s: %w", deviceID, err)
	}

	reading, err = s.readings.CreateReading(ctx, mqtmodels.Reading{
		DeviceID:        device.ID,
		PH:              device.CurrentPH,
		DosingActivated: true,
		Timestamp:       mqtmodels.FormatTimestamp(s.clock.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("create dosing reading: %w", err)
	}

	log := s.logger.WithDevice(device.ID)
	log.WithField("reading_id", reading.ID).Info("dosing activated")

	cmd := DosingCommand{DeviceID: device.ID, PH: reading.PH, ReadingID: reading.ID, Timestamp: reading.Timestamp}
	if err := s.outbox.Publish(ctx, "devices/"+device.ID+"/dosing", cmd); err != nil {
		// best effort; the reading is already stored
		log.WithError(err).Warn("failed to publish dosing command")
	}
	return reading, nil
}

// DosingMessage is the operator notification after a successful activation
func DosingMessage(device *mqtmodels.Device) string {
	if device != nil && device.Name != "" {
		return "Dosificador activado para " + device.Name + "."
	}
	return "Dosificador activado: se generó un registro."
}

package mqtingestor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Config"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	messaging "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Messaging"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

const queueSize = 4096

// Ingest outcomes
const (
	ResultStored        = "stored"
	ResultInvalid       = "invalid"
	ResultUnknownDevice = "unknown_device"
	ResultDropped       = "dropped"
	ResultError         = "error"
)

// Ingestor subscribes to pH telemetry and appends it to the store in batches
type Ingestor struct {
	cfg      config.IngestorConfig
	devices  interfaces.DeviceRepository
	readings interfaces.ReadingRepository
	logger   *logger.Logger
	now      func() time.Time

	mqttClient mqtt.Client
	msgCh      chan PHSample
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New(cfg config.IngestorConfig, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, log *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:      cfg,
		devices:  devices,
		readings: readings,
		logger:   log.WithComponent("ingestor"),
		now:      time.Now,
		msgCh:    make(chan PHSample, queueSize),
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	opts, err := messaging.NewClientOptions(i.cfg.MQTT, i.logger)
	if err != nil {
		return err
	}

	opts.OnConnect = func(c mqtt.Client) {
		topic := i.cfg.MQTT.Topic
		if i.cfg.MQTT.SharedGroup != "" {
			topic = fmt.Sprintf("$share/%s/%s", i.cfg.MQTT.SharedGroup, i.cfg.MQTT.Topic)
		}
		i.logger.WithField("topic", topic).Info("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.WithError(token.Error()).WithField("topic", topic).Error("Failed to subscribe to MQTT topic")
		}
	}

	i.mqttClient = mqtt.NewClient(opts)
	if tk := i.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	// batch writer
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.batchWriter(ctx)
	}()

	return nil
}

// Stop disconnects, flushes what is queued and waits for the writer
func (i *Ingestor) Stop() {
	if i.mqttClient != nil && i.mqttClient.IsConnected() {
		i.mqttClient.Disconnect(500)
	}
	i.mu.Lock()
	if !i.closed {
		i.closed = true
		close(i.msgCh)
	}
	i.mu.Unlock()
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.mqttClient != nil && i.mqttClient.IsConnected()
}

// Ping reports broker connectivity to the health checker
func (i *Ingestor) Ping(context.Context) error {
	if !i.IsConnected() {
		return messaging.ErrNotConnected
	}
	return nil
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.handle(m.Topic(), m.Payload())
}

// handle parses one message and queues it. Invalid messages are answered on the error topic.
func (i *Ingestor) handle(topic string, payload []byte) {
	i.logger.Logger.Debug().Str("topic", topic).Str("payload", string(payload)).Msg("Received MQTT message")

	deviceID, err := ParseTopic(topic)
	if err != nil {
		i.logger.WithError(err).Warn("Invalid topic format")
		metrics.IncIngested(ResultInvalid)
		i.publishError("unknown", "invalid_topic", err.Error())
		return
	}
	ph, err := ParsePayload(payload)
	if err != nil {
		i.logger.WithDevice(deviceID).WithError(err).Warn("Invalid payload")
		metrics.IncIngested(ResultInvalid)
		i.publishError(deviceID, "invalid_payload", err.Error())
		return
	}

	sample := PHSample{DeviceID: deviceID, PH: ph, Topic: topic, ReceivedAt: i.now().UTC()}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return
	}
	select {
	case i.msgCh <- sample:
	default:
		metrics.IncIngested(ResultDropped)
		i.logger.WithDevice(deviceID).Warn("Ingest queue full, dropping reading")
	}
}

func (i *Ingestor) batchWriter(ctx context.Context) {
	batch := make([]PHSample, 0, i.cfg.Batch.Size)
	timer := time.NewTimer(i.cfg.Batch.Window)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		i.logger.Logger.Info().Int("batch_size", len(batch)).Msg("Flushing batch to store")
		stored := i.processBatch(context.WithoutCancel(ctx), batch)
		i.logger.Logger.Info().Int("stored", stored).Int("count", len(batch)).Msg("Processed readings")
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case rd, ok := <-i.msgCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rd)
			if len(batch) >= i.cfg.Batch.Size {
				flush()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(i.cfg.Batch.Window)
			}
		case <-timer.C:
			flush()
			timer.Reset(i.cfg.Batch.Window)
		}
	}
}

// processBatch validates every sample's device and appends the readings. It
// returns how many readings were stored.
func (i *Ingestor) processBatch(ctx context.Context, batch []PHSample) int {
	known := make(map[string]bool)
	stored := 0
	for _, s := range batch {
		log := i.logger.WithDevice(s.DeviceID)

		exists, checked := known[s.DeviceID]
		if !checked {
			_, err := i.devices.GetDevice(ctx, s.DeviceID)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, interfaces.ErrNotFound):
				exists = false
			default:
				log.WithError(err).Error("Failed to validate device")
				metrics.IncIngested(ResultError)
				i.publishError(s.DeviceID, "device_validation_error", fmt.Sprintf("Failed to validate device %s: %v", s.DeviceID, err))
				continue
			}
			known[s.DeviceID] = exists
		}
		if !exists {
			log.Warn("Skipping reading: device not found")
			metrics.IncIngested(ResultUnknownDevice)
			i.publishError(s.DeviceID, "device_not_found", fmt.Sprintf("Device %s does not exist", s.DeviceID))
			continue
		}

		ph := s.PH
		_, err := i.readings.CreateReading(ctx, mqtmodels.Reading{
			DeviceID:        s.DeviceID,
			PH:              &ph,
			DosingActivated: false,
			Timestamp:       mqtmodels.FormatTimestamp(s.ReceivedAt),
		})
		if err != nil {
			log.WithError(err).Error("Error creating reading")
			metrics.IncIngested(ResultError)
			i.publishError(s.DeviceID, "create_reading_error", fmt.Sprintf("Failed to create reading: %v", err))
			continue
		}
		metrics.IncIngested(ResultStored)
		stored++
	}
	return stored
}

// publishError reports a rejected message back to the device on ingestor/errors/<device_id>
func (i *Ingestor) publishError(deviceID, errorType, message string) {
	if i.mqttClient == nil || !i.mqttClient.IsConnected() {
		return
	}

	payloadJSON, err := json.Marshal(map[string]interface{}{
		"error_type":     errorType,
		"message":        message,
		"dispositivo_id": deviceID,
		"timestamp":      mqtmodels.FormatTimestamp(i.now()),
	})
	if err != nil {
		i.logger.ErrorWithError(err, "Failed to marshal error payload")
		return
	}

	errorTopic := "ingestor/errors/" + deviceID
	token := i.mqttClient.Publish(errorTopic, 1, false, payloadJSON)
	if token.Wait() && token.Error() != nil {
		i.logger.WithError(token.Error()).WithField("topic", errorTopic).Error("Failed to publish error")
		return
	}
	i.logger.WithField("topic", errorTopic).WithField("message", message).Info("Published error")
}

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Config"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
)

// ErrNotConnected is returned when publishing while the broker is unreachable
var ErrNotConnected = errors.New("mqtt client not connected")

const publishQoS = 1

// Publisher sends JSON messages to topics below a fixed prefix
type Publisher struct {
	client mqtt.Client
	prefix string
	logger *logger.Logger
}

// NewPublisher wraps an existing client
func NewPublisher(client mqtt.Client, prefix string, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: strings.Trim(prefix, "/"),
		logger: log.WithComponent("mqtt_publisher"),
	}
}

// Connect dials the broker and returns a publisher on it
func Connect(ctx context.Context, cfg config.MQTTConfig, log *logger.Logger) (*Publisher, error) {
	opts, err := NewClientOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(mqtt.Client) {
		log.WithField("broker", cfg.BrokerURL()).Info("MQTT publisher connected")
	}

	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.BrokerURL(), err)
	}
	return NewPublisher(client, cfg.TopicPrefix, log), nil
}

// Topic joins the prefix and a relative topic
func (p *Publisher) Topic(topic string) string {
	topic = strings.Trim(topic, "/")
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "/" + topic
}

// Publish marshals payload as JSON and publishes it with QoS 1
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	full := p.Topic(topic)
	if err := wait(ctx, p.client.Publish(full, publishQoS, false, body)); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	p.logger.WithField("topic", full).Debug("published")
	return nil
}

// IsConnected reports the broker connection state
func (p *Publisher) IsConnected() bool {
	return p != nil && p.client != nil && p.client.IsConnected()
}

// Close disconnects, waiting up to 500ms for pending work
func (p *Publisher) Close() {
	if p.IsConnected() {
		p.client.Disconnect(500)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

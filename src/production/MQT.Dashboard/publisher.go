package dashboard

import (
	"context"
	"time"
)

// View event names pushed to dashboard clients
const (
	EventRegistry = "registry"
	EventControl  = "control"
	EventMonitor  = "monitor"
	EventAlerts   = "alerts"
	EventFeed     = "feed"
	EventCommands = "commands"
)

// Publisher receives view snapshots after every committed refresh
type Publisher interface {
	Publish(event string, data interface{})
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(event string, data interface{})

func (f PublisherFunc) Publish(event string, data interface{}) { f(event, data) }

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// Outbox sends device-facing messages, e.g. over MQTT. Topics are relative to the
// configured prefix.
type Outbox interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

type nopOutbox struct{}

func (nopOutbox) Publish(context.Context, string, interface{}) error { return nil }

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

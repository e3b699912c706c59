package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// GlobalAlert is the single alert shown in the global alert area
type GlobalAlert struct {
	Kind        string            `json:"kind"`
	Level       Level             `json:"level"`
	Title       string            `json:"title,omitempty"`
	Message     string            `json:"message"`
	Device      *mqtmodels.Device `json:"device,omitempty"`
	OfferDosing bool              `json:"offer_dosing"`
	Scanned     bool              `json:"scanned"`
	Cycle       int               `json:"cycle"`
	Notice      string            `json:"notice,omitempty"`
	Seq         uint64            `json:"seq"`
}

// Alert kinds besides the ScanKind values
const (
	AlertMonitoring = "monitoring"
	AlertError      = "error"
)

// FeedRefresher is anything that can refresh the global reading feed on demand
type FeedRefresher interface {
	RefreshNow(ctx context.Context)
}

// AlertOrchestrator scans all devices for pH anomalies on a slow, throttled cadence
type AlertOrchestrator struct {
	sched     *Scheduler
	devices   interfaces.DeviceRepository
	dosing    *DosingService
	period    time.Duration
	scanEvery int
	feed      FeedRefresher
	outbox    Outbox
	publisher Publisher
	logger    *logger.Logger

	mu        sync.RWMutex
	task      *TaskHandle
	current   GlobalAlert
	lastAlert string
	// phase is the periodic cycle the scan cadence counts from
	phase int
}

// AlertOption customizes the orchestrator.
type AlertOption func(*AlertOrchestrator)

// WithFeed makes dosing from an alert refresh the feed right away.
func WithFeed(feed FeedRefresher) AlertOption {
	return func(o *AlertOrchestrator) {
		o.feed = feed
	}
}

// WithAlertOutbox forwards changed alerts to the devices' broker.
func WithAlertOutbox(outbox Outbox) AlertOption {
	return func(o *AlertOrchestrator) {
		if outbox != nil {
			o.outbox = outbox
		}
	}
}

// NewAlertOrchestrator builds the orchestrator. A full scan runs on the first cycle
// and then on every scanEvery-th cycle.
func NewAlertOrchestrator(sched *Scheduler, devices interfaces.DeviceRepository, dosing *DosingService, period time.Duration, scanEvery int, publisher Publisher, log *logger.Logger, opts ...AlertOption) *AlertOrchestrator {
	if scanEvery < 1 {
		scanEvery = 1
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	o := &AlertOrchestrator{
		sched:     sched,
		devices:   devices,
		dosing:    dosing,
		period:    period,
		scanEvery: scanEvery,
		outbox:    nopOutbox{},
		publisher: publisher,
		logger:    log.WithComponent("alert_orchestrator"),
		current:   GlobalAlert{Kind: AlertMonitoring, Level: LevelInfo, Message: msgMonitoring},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start schedules the orchestrator; the first cycle runs immediately
func (o *AlertOrchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.task != nil {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	h := o.sched.Schedule("alerts", o.period, o.cycle, false)
	o.mu.Lock()
	o.task = h
	o.mu.Unlock()
	if err := h.Run(ctx); err != nil {
		o.logger.WithError(err).Warn("initial alert scan failed")
	}
}

// Stop cancels the orchestrator task
func (o *AlertOrchestrator) Stop() {
	o.mu.Lock()
	h := o.task
	o.task = nil
	o.mu.Unlock()
	h.Cancel()
}

// Current returns the alert on display
func (o *AlertOrchestrator) Current() GlobalAlert {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// ShouldScan reports whether periodic cycle n (0-based) performs a full scan.
// A failed periodic scan moves the cadence so the following cycle scans again.
func (o *AlertOrchestrator) ShouldScan(n int) bool {
	o.mu.RLock()
	phase := o.phase
	o.mu.RUnlock()
	return n >= phase && (n-phase)%o.scanEvery == 0
}

// Rescan forces an immediate full scan without moving the throttle counter
func (o *AlertOrchestrator) Rescan(ctx context.Context) (GlobalAlert, error) {
	o.mu.RLock()
	h := o.task
	o.mu.RUnlock()
	if h == nil {
		return o.Current(), fmt.Errorf("alert orchestrator not started")
	}
	err := h.Force(ctx)
	return o.Current(), err
}

// ActivateDosing doses the alerted device, then rescans and refreshes the feed
func (o *AlertOrchestrator) ActivateDosing(ctx context.Context, deviceID string) (*mqtmodels.Reading, GlobalAlert, error) {
	reading, err := o.dosing.Activate(ctx, deviceID)
	if err != nil {
		return nil, o.Current(), err
	}
	alert, err := o.Rescan(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("rescan after dosing failed")
	}
	if o.feed != nil {
		o.feed.RefreshNow(ctx)
	}
	return reading, alert, nil
}

func (o *AlertOrchestrator) cycle(ctx context.Context, h *TaskHandle, c Cycle) error {
	if !c.Forced && !o.ShouldScan(c.N) {
		h.Commit(c.Seq, func() {
			o.apply(GlobalAlert{Kind: AlertMonitoring, Level: LevelInfo, Message: msgMonitoring, Cycle: c.N, Seq: c.Seq})
		})
		return nil
	}

	devices, err := o.devices.ListDevices(ctx, interfaces.ListQuery{})
	if err != nil {
		if !c.Forced {
			o.mu.Lock()
			o.phase = c.N + 1
			o.mu.Unlock()
		}
		h.Commit(c.Seq, func() {
			o.apply(GlobalAlert{Kind: AlertError, Level: LevelDanger, Message: msgAlertsFailed, Scanned: true, Cycle: c.N, Seq: c.Seq})
		})
		return fmt.Errorf("list devices: %w", err)
	}

	alert := alertFromScan(ScanDevices(devices))
	alert.Cycle = c.N
	alert.Seq = c.Seq
	changed := false
	h.Commit(c.Seq, func() { changed = o.apply(alert) })
	if changed && alert.Device != nil {
		if err := o.outbox.Publish(ctx, "alerts/"+alert.Device.ID, alert); err != nil {
			o.logger.WithDevice(alert.Device.ID).WithError(err).Warn("failed to publish alert")
		}
	}
	return nil
}

func alertFromScan(res ScanResult) GlobalAlert {
	switch res.Kind {
	case ScanCritical, ScanWarning:
		d := res.Device
		alert := GlobalAlert{
			Kind:        string(res.Kind),
			Level:       LevelWarning,
			Title:       "pH fuera de rango",
			Message:     fmt.Sprintf("%s (%s) pH: %s / objetivo: %s", d.Name, d.Type, FormatPH(d.CurrentPH), FormatPH(d.TargetPH)),
			Device:      d,
			OfferDosing: true,
			Scanned:     true,
		}
		if res.Kind == ScanCritical {
			alert.Level = LevelDanger
			alert.Title = "¡pH ÁCIDO!"
		}
		return alert
	}
	return GlobalAlert{Kind: string(ScanNominal), Level: LevelSuccess, Message: msgAllNominal, Scanned: true}
}

// apply installs alert and reports whether a scanned alert differs from the last one
func (o *AlertOrchestrator) apply(alert GlobalAlert) bool {
	o.mu.Lock()
	o.current = alert
	changed := false
	if alert.Scanned {
		key := alert.Kind
		if alert.Device != nil {
			key += ":" + alert.Device.ID
		}
		changed = key != o.lastAlert
		o.lastAlert = key
	}
	o.mu.Unlock()

	metrics.IncAlertRendered(string(alert.Level))
	o.publisher.Publish(EventAlerts, alert)
	return changed
}

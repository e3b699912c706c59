package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

const feedLimit = 10

// Feed messages
const (
	msgNoReadings      = "No hay registros"
	msgNoValidReadings = "No hay registros válidos"
	msgReadingsFailed  = "Error al cargar registros"
)

// FeedRow is a reading joined with its device
type FeedRow struct {
	ReadingID   string `json:"registro_id"`
	DeviceID    string `json:"dispositivo_id"`
	DeviceName  string `json:"nombre"`
	DeviceType  string `json:"tipo"`
	Location    string `json:"ubicacion"`
	IP          string `json:"ip"`
	PH          string `json:"ph"`
	StatusLabel string `json:"status"`
	StatusLevel Level  `json:"status_level"`
	Dosing      string `json:"dosificador"`
	Time        string `json:"fecha"`
}

// FeedSnapshot is the rendered global feed. Message is set when there are no rows.
type FeedSnapshot struct {
	Rows    []FeedRow `json:"rows"`
	Message string    `json:"message,omitempty"`
	Error   bool      `json:"error"`
	Seq     uint64    `json:"seq"`
}

// RegistroFeed shows the latest readings across all devices
type RegistroFeed struct {
	sched     *Scheduler
	devices   interfaces.DeviceRepository
	readings  interfaces.ReadingRepository
	period    time.Duration
	publisher Publisher
	logger    *logger.Logger

	mu       sync.RWMutex
	task     *TaskHandle
	snapshot FeedSnapshot
}

func NewRegistroFeed(sched *Scheduler, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, period time.Duration, publisher Publisher, log *logger.Logger) *RegistroFeed {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &RegistroFeed{
		sched:     sched,
		devices:   devices,
		readings:  readings,
		period:    period,
		publisher: publisher,
		logger:    log.WithComponent("registro_feed"),
		snapshot:  FeedSnapshot{Rows: []FeedRow{}, Message: msgNoReadings},
	}
}

// Start schedules the feed and renders it once before returning
func (f *RegistroFeed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.task != nil {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	h := f.sched.Schedule("feed", f.period, f.refresh, false)
	f.mu.Lock()
	f.task = h
	f.mu.Unlock()
	if err := h.Run(ctx); err != nil {
		f.logger.WithError(err).Warn("initial feed refresh failed")
	}
}

// Stop cancels the feed task
func (f *RegistroFeed) Stop() {
	f.mu.Lock()
	h := f.task
	f.task = nil
	f.mu.Unlock()
	h.Cancel()
}

// Snapshot returns the last rendered feed
func (f *RegistroFeed) Snapshot() FeedSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// RefreshNow runs a forced refresh on the caller's goroutine
func (f *RegistroFeed) RefreshNow(ctx context.Context) {
	f.mu.RLock()
	h := f.task
	f.mu.RUnlock()
	if h == nil {
		return
	}
	if err := h.Force(ctx); err != nil {
		f.logger.WithError(err).Warn("feed refresh failed")
	}
}

func (f *RegistroFeed) refresh(ctx context.Context, h *TaskHandle, c Cycle) error {
	latest, err := f.readings.ListReadings(ctx, interfaces.ListQuery{
		SortBy: "timestamp",
		Order:  interfaces.OrderDesc,
		Limit:  feedLimit,
	})
	if err != nil {
		f.commitError(h, c)
		return fmt.Errorf("list readings: %w", err)
	}
	if len(latest) == 0 {
		h.Commit(c.Seq, func() {
			f.setSnapshot(FeedSnapshot{Rows: []FeedRow{}, Message: msgNoReadings, Seq: c.Seq})
		})
		return nil
	}
	devices, err := f.devices.ListDevices(ctx, interfaces.ListQuery{})
	if err != nil {
		f.commitError(h, c)
		return fmt.Errorf("list devices: %w", err)
	}

	snap := FeedSnapshot{Rows: joinFeed(latest, devices), Seq: c.Seq}
	if len(snap.Rows) == 0 {
		snap.Message = msgNoValidReadings
	}
	h.Commit(c.Seq, func() { f.setSnapshot(snap) })
	return nil
}

func (f *RegistroFeed) commitError(h *TaskHandle, c Cycle) {
	h.Commit(c.Seq, func() {
		f.setSnapshot(FeedSnapshot{Rows: []FeedRow{}, Message: msgReadingsFailed, Error: true, Seq: c.Seq})
	})
}

func (f *RegistroFeed) setSnapshot(s FeedSnapshot) {
	f.mu.Lock()
	f.snapshot = s
	f.mu.Unlock()
	f.publisher.Publish(EventFeed, s)
}

// joinFeed pairs readings with their devices; readings of unknown devices are dropped
func joinFeed(readings []mqtmodels.Reading, devices []mqtmodels.Device) []FeedRow {
	byID := make(map[string]*mqtmodels.Device, len(devices))
	for i := range devices {
		byID[devices[i].ID] = &devices[i]
	}

	rows := make([]FeedRow, 0, len(readings))
	for _, r := range readings {
		d, ok := byID[r.DeviceID]
		if !ok {
			continue
		}
		status := ClassifyPH(r.PH)
		rows = append(rows, FeedRow{
			ReadingID:   r.ID,
			DeviceID:    d.ID,
			DeviceName:  d.Name,
			DeviceType:  d.Type,
			Location:    d.Location,
			IP:          d.IP,
			PH:          FormatPH(r.PH),
			StatusLabel: status.Label,
			StatusLevel: status.Level,
			Dosing:      yesNo(r.DosingActivated),
			Time:        formatDateTime(r),
		})
	}
	return rows
}

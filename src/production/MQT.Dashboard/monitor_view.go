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

const (
	monitorSeriesLimit = 100
	monitorTableLimit  = 10
)

// DeviceOption is an entry of a device selector
type DeviceOption struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// MonitorSnapshot is the rendered monitor view
type MonitorSnapshot struct {
	DeviceID string         `json:"device_id"`
	Devices  []DeviceOption `json:"devices"`
	Chart    ChartData      `json:"chart"`
	Table    []ReadingRow   `json:"table"`
	Error    string         `json:"error,omitempty"`
	Seq      uint64         `json:"seq"`
}

// MonitorView charts the reading history of one device
type MonitorView struct {
	sched     *Scheduler
	devices   interfaces.DeviceRepository
	readings  interfaces.ReadingRepository
	period    time.Duration
	publisher Publisher
	logger    *logger.Logger
	chart     *Chart

	selectMu sync.Mutex

	mu       sync.RWMutex
	task     *TaskHandle
	selected string
	options  []DeviceOption
	snapshot MonitorSnapshot
}

func NewMonitorView(sched *Scheduler, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, period time.Duration, publisher Publisher, log *logger.Logger) *MonitorView {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &MonitorView{
		sched:     sched,
		devices:   devices,
		readings:  readings,
		period:    period,
		publisher: publisher,
		logger:    log.WithComponent("monitor_view"),
		chart:     &Chart{},
	}
}

// Chart returns the view's chart instance
func (v *MonitorView) Chart() *Chart {
	return v.chart
}

// Start loads the device selector and selects the first device, if any
func (v *MonitorView) Start(ctx context.Context) error {
	devices, err := v.devices.ListDevices(ctx, interfaces.ListQuery{})
	if err != nil {
		v.setSnapshot(MonitorSnapshot{Devices: []DeviceOption{}, Error: "Error al cargar dispositivos"})
		return fmt.Errorf("list devices: %w", err)
	}
	options := make([]DeviceOption, 0, len(devices))
	for _, d := range devices {
		options = append(options, DeviceOption{ID: d.ID, Name: d.Name})
	}
	v.mu.Lock()
	v.options = options
	v.mu.Unlock()

	if len(options) == 0 {
		v.setSnapshot(MonitorSnapshot{Devices: options, Table: []ReadingRow{}})
		return nil
	}
	_, err = v.Select(ctx, options[0].ID)
	return err
}

// Stop cancels the refresh task
func (v *MonitorView) Stop() {
	v.selectMu.Lock()
	defer v.selectMu.Unlock()
	v.swapTask("", nil).Cancel()
}

// Selected returns the id of the charted device
func (v *MonitorView) Selected() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selected
}

// Snapshot returns the last rendered view
func (v *MonitorView) Snapshot() MonitorSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Select cancels the previous task, refreshes immediately and then polls id
func (v *MonitorView) Select(ctx context.Context, id string) (MonitorSnapshot, error) {
	v.selectMu.Lock()
	defer v.selectMu.Unlock()

	v.swapTask(id, nil).Cancel()
	if id == "" {
		v.chart.Reset()
		v.setSnapshot(MonitorSnapshot{Devices: v.deviceOptions(), Chart: v.chart.Data(), Table: []ReadingRow{}})
		return v.Snapshot(), nil
	}

	h := v.sched.Schedule("monitor:"+id, v.period, func(ctx context.Context, h *TaskHandle, c Cycle) error {
		return v.refresh(ctx, h, c, id)
	}, false)
	v.swapTask(id, h)

	err := h.Run(ctx)
	return v.Snapshot(), err
}

func (v *MonitorView) swapTask(id string, h *TaskHandle) *TaskHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.task
	v.task = h
	v.selected = id
	return prev
}

func (v *MonitorView) deviceOptions() []DeviceOption {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]DeviceOption{}, v.options...)
}

func (v *MonitorView) setSnapshot(s MonitorSnapshot) {
	v.mu.Lock()
	v.snapshot = s
	v.mu.Unlock()
	v.publisher.Publish(EventMonitor, s)
}

func (v *MonitorView) refresh(ctx context.Context, h *TaskHandle, c Cycle, id string) error {
	history, err := v.readings.ListReadings(ctx, interfaces.ListQuery{
		SortBy: "timestamp",
		Order:  interfaces.OrderAsc,
	}.ForDevice(id))
	if err != nil {
		h.Commit(c.Seq, func() {
			snap := v.Snapshot()
			snap.Error = "Error al cargar registros"
			snap.Seq = c.Seq
			v.setSnapshot(snap)
		})
		return fmt.Errorf("fetch history for %s: %w", id, err)
	}

	labels, data := chartSeries(history, monitorSeriesLimit)
	table := latestRows(history, monitorTableLimit)

	h.Commit(c.Seq, func() {
		v.chart.Update(labels, data)
		v.setSnapshot(MonitorSnapshot{
			DeviceID: id,
			Devices:  v.deviceOptions(),
			Chart:    v.chart.Data(),
			Table:    table,
			Seq:      c.Seq,
		})
	})
	return nil
}

// chartSeries keeps the last limit readings of an ascending history
func chartSeries(history []mqtmodels.Reading, limit int) ([]string, []*float64) {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	labels := make([]string, 0, len(history))
	data := make([]*float64, 0, len(history))
	for _, r := range history {
		labels = append(labels, formatClock(r))
		data = append(data, r.PH)
	}
	return labels, data
}

// latestRows returns the last limit readings of an ascending history, newest first
func latestRows(history []mqtmodels.Reading, limit int) []ReadingRow {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	rows := make([]ReadingRow, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		rows = append(rows, newReadingRow(history[i]))
	}
	return rows
}

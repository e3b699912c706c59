package dashboard

import (
	"context"
	"time"

	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// AppConfig wires the process-wide views
type AppConfig struct {
	Devices  interfaces.DeviceRepository
	Readings interfaces.ReadingRepository
	Commands interfaces.CommandRepository

	Resolution     time.Duration
	ControlPeriod  time.Duration
	MonitorPeriod  time.Duration
	FeedPeriod     time.Duration
	AlertPeriod    time.Duration
	AlertScanEvery int
	CommandPeriod  time.Duration

	// Publisher receives process-wide events; per-page events go to the session's publisher
	Publisher Publisher
	Outbox    Outbox
	Clock     Clock
	Logger    *logger.Logger
}

// App owns the scheduler and every view shared by all pages
type App struct {
	Scheduler *Scheduler
	Devices   interfaces.DeviceRepository
	Readings  interfaces.ReadingRepository
	Registry  *RegistryView
	Dosing    *DosingService
	Alerts    *AlertOrchestrator
	Feed      *RegistroFeed
	Console   *CommandConsole
	Exporter  *HistoryExporter
	Sessions  *SessionFactory
}

func NewApp(cfg AppConfig) *App {
	log := cfg.Logger
	sched := NewScheduler(cfg.Resolution, log)
	dosing := NewDosingService(cfg.Devices, cfg.Readings, log, WithOutbox(cfg.Outbox), WithClock(cfg.Clock))
	feed := NewRegistroFeed(sched, cfg.Devices, cfg.Readings, cfg.FeedPeriod, cfg.Publisher, log)
	console := NewCommandConsole(cfg.Commands, cfg.Publisher, log,
		WithConsoleOutbox(cfg.Outbox), WithConsoleClock(cfg.Clock), WithConsoleRefresh(sched, cfg.CommandPeriod))

	return &App{
		Scheduler: sched,
		Devices:   cfg.Devices,
		Readings:  cfg.Readings,
		Registry:  NewRegistryView(cfg.Devices, cfg.Publisher, log),
		Dosing:    dosing,
		Alerts: NewAlertOrchestrator(sched, cfg.Devices, dosing, cfg.AlertPeriod, cfg.AlertScanEvery, cfg.Publisher, log,
			WithFeed(feed), WithAlertOutbox(cfg.Outbox)),
		Feed:     feed,
		Console:  console,
		Exporter: NewHistoryExporter(cfg.Devices, cfg.Readings),
		Sessions: &SessionFactory{
			Scheduler:     sched,
			Devices:       cfg.Devices,
			Readings:      cfg.Readings,
			Dosing:        dosing,
			ControlPeriod: cfg.ControlPeriod,
			MonitorPeriod: cfg.MonitorPeriod,
			Logger:        log,
		},
	}
}

// Start renders every shared view once and schedules the pollers.
// The tick source is started separately with Scheduler.Start.
func (a *App) Start(ctx context.Context) {
	a.Registry.Start(ctx)
	a.Feed.Start(ctx)
	a.Alerts.Start(ctx)
	a.Console.Start(ctx)
}

// Stop cancels every task, including those of open sessions
func (a *App) Stop() {
	a.Console.Stop()
	a.Alerts.Stop()
	a.Feed.Stop()
	a.Registry.Stop()
	a.Scheduler.Stop()
}

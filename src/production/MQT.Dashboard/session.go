package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// Page identifies which views a browser page shows
type Page string

const (
	PageHome    Page = "home"
	PageAdmin   Page = "admin"
	PageControl Page = "control"
	PageMonitor Page = "monitor"
)

// ParsePage maps a page name to a Page, falling back to PageHome
func ParsePage(s string) Page {
	switch Page(s) {
	case PageAdmin, PageControl, PageMonitor:
		return Page(s)
	}
	return PageHome
}

// SessionFactory holds what every per-page session needs
type SessionFactory struct {
	Scheduler     *Scheduler
	Devices       interfaces.DeviceRepository
	Readings      interfaces.ReadingRepository
	Dosing        *DosingService
	ControlPeriod time.Duration
	MonitorPeriod time.Duration
	Logger        *logger.Logger
}

// Session is one open dashboard page with its own selections
type Session struct {
	ID      string
	Page    Page
	Control *ControlView
	Monitor *MonitorView

	once sync.Once
}

// NewSession builds the page's views. Nothing is scheduled until Start.
func (f *SessionFactory) NewSession(page Page, publisher Publisher) *Session {
	id := uuid.NewString()
	log := f.Logger.WithSession(id)
	return &Session{
		ID:      id,
		Page:    page,
		Control: NewControlView(f.Scheduler, f.Devices, f.Readings, f.Dosing, f.ControlPeriod, publisher, log),
		Monitor: NewMonitorView(f.Scheduler, f.Devices, f.Readings, f.MonitorPeriod, publisher, log),
	}
}

// Start starts the views the page shows
func (s *Session) Start(ctx context.Context) error {
	s.Control.Start(ctx)
	if s.Page == PageMonitor {
		return s.Monitor.Start(ctx)
	}
	return nil
}

// Stop stops every view of the session. Idempotent.
func (s *Session) Stop() {
	s.once.Do(func() {
		s.Control.Stop()
		s.Monitor.Stop()
	})
}

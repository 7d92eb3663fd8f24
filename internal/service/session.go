package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"device_console/internal/logger"
	"device_console/internal/models"
	"device_console/internal/repository"

	"github.com/google/uuid"
)

// Task names.
const (
	TaskTelemetry  = "telemetry"
	TaskWiFiStatus = "wifi_status"
	TaskReboot     = "reboot"
)

// Session is one console page load and its scheduled work: the telemetry
// poller, the WiFi status poller and the reboot countdown.
type Session struct {
	dev      Device
	readings repository.ReadingRepo
	events   repository.EventRepo
	pub      Publisher
	log      *logger.Logger
	opts     SessionOptions
	now      func() time.Time

	view *viewStore

	telemetry  *Task
	wifiStatus *Task
	reboot     *Task

	statusBusy atomic.Bool
	rebootLeft atomic.Int32
	stored     atomic.Int64

	mu   sync.Mutex
	base context.Context
}

// SessionDeps are the collaborators of a Session. Repos, publisher and
// logger may be nil.
type SessionDeps struct {
	Device    Device
	Readings  repository.ReadingRepo
	Events    repository.EventRepo
	Publisher Publisher
	Log       *logger.Logger
}

func NewSession(deps SessionDeps, opts SessionOptions) *Session {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Session{
		dev:      deps.Device,
		readings: deps.Readings,
		events:   deps.Events,
		pub:      deps.Publisher,
		log:      log,
		opts:     opts.withDefaults(),
		now:      time.Now,
		base:     context.Background(),
	}
	s.view = newViewStore(func() time.Time { return s.now() })
	s.telemetry = NewTask(TaskTelemetry, s.opts.TelemetryInterval, false, s.telemetryTick)
	s.wifiStatus = NewTask(TaskWiFiStatus, s.opts.WiFiStatusInterval, false, s.wifiStatusTick)
	s.reboot = NewTask(TaskReboot, s.opts.RebootTick, true, s.rebootTick)
	return s
}

// Start begins telemetry polling. Tasks started later also live under ctx.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.telemetry.Start(ctx)
	s.log.Infow("session_started", "telemetry_interval", s.opts.TelemetryInterval.String())
}

// Close stops every task and waits for them.
func (s *Session) Close() {
	s.reboot.Stop()
	s.wifiStatus.Stop()
	s.telemetry.Stop()
	s.log.Infow("session_closed")
}

// Running reports which tasks are live, by name.
func (s *Session) Running() map[string]bool {
	return map[string]bool{
		TaskTelemetry:  s.telemetry.Running(),
		TaskWiFiStatus: s.wifiStatus.Running(),
		TaskReboot:     s.reboot.Running(),
	}
}

func (s *Session) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// GetView returns a copy of the current page state.
func (s *Session) GetView(_ context.Context) (models.View, error) {
	return s.view.snapshot(), nil
}

// reload is a fresh page load: the view resets and the WiFi poller stops.
// Telemetry keeps running. Not safe to call from the WiFi status task.
func (s *Session) reload() {
	s.wifiStatus.Stop()
	gen := s.view.reload()
	s.log.Infow("page_reloaded", "generation", gen)
}

// recordEvent stores and mirrors an audit entry; failures are only logged.
func (s *Session) recordEvent(ctx context.Context, typ, desc string, meta any) {
	ev := models.SessionEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if s.events != nil {
		if err := s.events.Append(context.WithoutCancel(ctx), ev); err != nil {
			s.log.Errorw("event_store_failed", "type", typ, "err", err)
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishEvent(ev); err != nil {
			s.log.Warnw("event_publish_failed", "type", typ, "err", err)
		}
	}
}

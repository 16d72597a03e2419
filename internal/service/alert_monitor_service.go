package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/jobs"
)

type alertRepository interface {
	List(ctx context.Context, p models.Principal, status models.AlertStatus) ([]models.SosAlert, error)
	Resolve(ctx context.Context, p models.Principal, id int64) error
}

type alertMetrics interface {
	RecordAlertPoll(err error, active int)
}

// MonitorConfig tunes the Admin Alert Monitor.
type MonitorConfig struct {
	PollInterval time.Duration
	PageSize     int
	Now          func() time.Time
	Metrics      alertMetrics
}

// AlertPage is one client-side page over the fetched alert list.
type AlertPage struct {
	Alerts      []models.SosAlert `json:"alerts"`
	ActiveCount int               `json:"activeCount"`
	Pagination  models.Pagination `json:"pagination"`
	RefreshedAt time.Time         `json:"refreshedAt"`
}

// MonitorSnapshot is a copy of the monitor's list and last refresh outcome.
type MonitorSnapshot struct {
	Alerts      []models.SosAlert `json:"alerts"`
	ActiveCount int               `json:"activeCount"`
	RefreshedAt time.Time         `json:"refreshedAt"`
	Error       string            `json:"error,omitempty"`
}

// AlertMonitor keeps the newest-first alert list for one administrator view.
// Pages and the active count are derived from that list without network calls.
type AlertMonitor struct {
	principal models.Principal
	repo      alertRepository
	cfg       MonitorConfig
	logger    *zap.Logger

	mu          sync.Mutex
	alerts      []models.SosAlert
	refreshedAt time.Time
	lastErr     error
	epoch       uint64
	issued      uint64
	applied     uint64
	poller      *jobs.Poller
}

func newAlertMonitor(p models.Principal, repo alertRepository, cfg MonitorConfig, logger *zap.Logger) *AlertMonitor {
	return &AlertMonitor{principal: p, repo: repo, cfg: cfg, logger: logger, alerts: []models.SosAlert{}}
}

// Refresh refetches the list. On failure the previous list is kept.
func (m *AlertMonitor) Refresh(ctx context.Context) error {
	m.mu.Lock()
	epoch := m.epoch
	m.issued++
	seq := m.issued
	m.mu.Unlock()

	alerts, err := m.repo.List(ctx, m.principal, "")

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || seq < m.applied {
		return nil
	}
	m.applied = seq
	if err != nil {
		m.lastErr = err
		m.recordPoll(err, 0)
		m.logger.Warn("alert refresh failed", zap.Error(err))
		return err
	}
	m.alerts = models.SortAlertsNewestFirst(alerts)
	m.refreshedAt = m.cfg.Now()
	m.lastErr = nil
	m.recordPoll(nil, models.ActiveAlertCount(m.alerts))
	return nil
}

func (m *AlertMonitor) recordPoll(err error, active int) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.RecordAlertPoll(err, active)
	}
}

// Start polls immediately and then on every interval. onUpdate receives a
// snapshot after each refresh attempt and may be nil.
func (m *AlertMonitor) Start(ctx context.Context, onUpdate func(MonitorSnapshot)) {
	m.mu.Lock()
	if m.poller == nil {
		m.poller = jobs.NewPoller("alert-monitor", func(ctx context.Context) error {
			err := m.Refresh(ctx)
			if onUpdate != nil && ctx.Err() == nil {
				onUpdate(m.Snapshot())
			}
			return err
		}, jobs.PollerConfig{Interval: m.cfg.PollInterval, Immediate: true, Logger: m.logger})
	}
	poller := m.poller
	m.mu.Unlock()
	poller.Start(ctx)
}

// Stop cancels polling and discards the result of any refresh still in flight.
func (m *AlertMonitor) Stop() {
	m.mu.Lock()
	m.epoch++
	poller := m.poller
	m.poller = nil
	m.mu.Unlock()
	if poller != nil {
		poller.Stop()
	}
}

// Resolve asks the backend to resolve an alert and then refetches the whole
// list. A rejected resolve leaves the list untouched.
func (m *AlertMonitor) Resolve(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid alert id")
	}
	if err := m.repo.Resolve(ctx, m.principal, id); err != nil {
		m.logger.Warn("alert resolve failed", zap.Int64("alert_id", id), zap.Error(err))
		if isAuthFailure(err) {
			return err
		}
		return appErrors.WrapAs(err, appErrors.ErrResolution, "")
	}
	m.logger.Info("alert resolved", zap.Int64("alert_id", id), zap.String("principal", m.principal.ID.String()))
	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("refresh after resolve failed", zap.Int64("alert_id", id), zap.Error(err))
	}
	return nil
}

// Alerts returns a copy of the current newest-first list.
func (m *AlertMonitor) Alerts() []models.SosAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SosAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// ActiveCount filters the current list by status ACTIVE.
func (m *AlertMonitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.ActiveAlertCount(m.alerts)
}

// Page slices the current list. Page numbers start at 1.
func (m *AlertMonitor) Page(n int) AlertPage {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := m.cfg.PageSize
	return AlertPage{
		Alerts:      models.Page(m.alerts, size, n),
		ActiveCount: models.ActiveAlertCount(m.alerts),
		Pagination:  models.NewPagination(len(m.alerts), size, n),
		RefreshedAt: m.refreshedAt,
	}
}

// RefreshedAt returns the time of the last successful refresh.
func (m *AlertMonitor) RefreshedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshedAt
}

// Snapshot copies the list and last refresh outcome.
func (m *AlertMonitor) Snapshot() MonitorSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	alerts := make([]models.SosAlert, len(m.alerts))
	copy(alerts, m.alerts)
	snap := MonitorSnapshot{
		Alerts:      alerts,
		ActiveCount: models.ActiveAlertCount(alerts),
		RefreshedAt: m.refreshedAt,
	}
	if m.lastErr != nil {
		snap.Error = appErrors.FromError(m.lastErr).Message
	}
	return snap
}

// AlertMonitorService hands out monitors to administrators. Stateless callers
// share one cached monitor per administrator so paging stays local between polls.
type AlertMonitorService struct {
	repo   alertRepository
	cfg    MonitorConfig
	logger *zap.Logger

	mu     sync.Mutex
	shared map[models.ID]*AlertMonitor
}

// NewAlertMonitorService constructs an AlertMonitorService.
func NewAlertMonitorService(repo alertRepository, logger *zap.Logger, cfg MonitorConfig) *AlertMonitorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AlertMonitorService{repo: repo, cfg: cfg, logger: logger, shared: make(map[models.ID]*AlertMonitor)}
}

// PollInterval returns the configured polling interval.
func (s *AlertMonitorService) PollInterval() time.Duration {
	return s.cfg.PollInterval
}

// NewMonitor returns a dedicated monitor owned by the caller, who must Stop it.
func (s *AlertMonitorService) NewMonitor(p models.Principal) (*AlertMonitor, error) {
	if !p.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	return newAlertMonitor(p, s.repo, s.cfg, s.logger), nil
}

// Shared returns the cached monitor for the administrator, refreshing it when
// it has never loaded, when forced, or when the last refresh is older than
// the poll interval.
func (s *AlertMonitorService) Shared(ctx context.Context, p models.Principal, force bool) (*AlertMonitor, error) {
	if !p.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	s.mu.Lock()
	monitor, ok := s.shared[p.ID]
	if !ok || monitor.principal.Credential != p.Credential {
		monitor = newAlertMonitor(p, s.repo, s.cfg, s.logger)
		s.shared[p.ID] = monitor
	}
	s.mu.Unlock()

	refreshed := monitor.RefreshedAt()
	if force || refreshed.IsZero() || s.cfg.Now().Sub(refreshed) >= s.cfg.PollInterval {
		if err := monitor.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return monitor, nil
}

// Forget drops the cached monitor for a principal, typically on logout.
func (s *AlertMonitorService) Forget(id models.ID) {
	s.mu.Lock()
	monitor, ok := s.shared[id]
	delete(s.shared, id)
	s.mu.Unlock()
	if ok {
		monitor.Stop()
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

// SOSState is the local state of one SOS modal.
type SOSState string

const (
	SOSIdle          SOSState = "IDLE"
	SOSLocating      SOSState = "LOCATING"
	SOSLocationReady SOSState = "LOCATION_READY"
	SOSLocationError SOSState = "LOCATION_ERROR"
	SOSSending       SOSState = "SENDING"
	SOSSent          SOSState = "SENT"
	SOSSendError     SOSState = "SEND_ERROR"
)

// LocationErrorKind classifies why no position fix was produced.
type LocationErrorKind string

const (
	LocationPermissionDenied LocationErrorKind = "PERMISSION_DENIED"
	LocationUnavailable      LocationErrorKind = "UNAVAILABLE"
	LocationTimeout          LocationErrorKind = "TIMEOUT"
	LocationUnknown          LocationErrorKind = "UNKNOWN"
)

var locationMessages = map[LocationErrorKind]string{
	LocationPermissionDenied: "Location permission denied. Please enable location access.",
	LocationUnavailable:      "Location information unavailable.",
	LocationTimeout:          "Location request timed out.",
	LocationUnknown:          "An unknown error occurred while getting location.",
}

// LocationError is returned by a Locator that could not produce a fix.
type LocationError struct {
	Kind LocationErrorKind
	Err  error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %v", strings.ToLower(string(e.Kind)), e.Err)
	}
	return "location " + strings.ToLower(string(e.Kind))
}

func (e *LocationError) Unwrap() error { return e.Err }

// Message is the user-facing text for the failure.
func (e *LocationError) Message() string {
	if msg, ok := locationMessages[e.Kind]; ok {
		return msg
	}
	return locationMessages[LocationUnknown]
}

// Locator produces a single fresh, high-accuracy position fix.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (models.Coordinates, error)

// Locate implements Locator.
func (f LocatorFunc) Locate(ctx context.Context) (models.Coordinates, error) {
	return f(ctx)
}

// StaticLocator always reports the same fix.
func StaticLocator(c models.Coordinates) Locator {
	return LocatorFunc(func(ctx context.Context) (models.Coordinates, error) {
		if err := ctx.Err(); err != nil {
			return models.Coordinates{}, err
		}
		return c, nil
	})
}

// ReportedLocator replays a fix, or the failure, that a browser already obtained.
func ReportedLocator(req dto.SendAlertRequest) Locator {
	return LocatorFunc(func(ctx context.Context) (models.Coordinates, error) {
		if req.Latitude == nil || req.Longitude == nil {
			kind := LocationErrorKind(req.LocationError)
			if kind == "" {
				kind = LocationUnavailable
			}
			return models.Coordinates{}, &LocationError{Kind: kind}
		}
		return models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude, Accuracy: req.Accuracy}, nil
	})
}

type alertCreator interface {
	Create(ctx context.Context, p models.Principal, alert repository.NewAlert) (*models.SosAlert, error)
}

type sosMetrics interface {
	RecordSOS(err error)
}

// SOSConfig tunes the SOS flow.
type SOSConfig struct {
	DefaultMessage   string
	MaxMessageLength int
	LocateTimeout    time.Duration
	Metrics          sosMetrics
}

// SOSService creates SOS flows and raises alerts in one call for stateless callers.
type SOSService struct {
	repo      alertCreator
	validator *validator.Validate
	cfg       SOSConfig
	logger    *zap.Logger
}

// NewSOSService constructs an SOSService.
func NewSOSService(repo alertCreator, validate *validator.Validate, logger *zap.Logger, cfg SOSConfig) *SOSService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DefaultMessage == "" {
		cfg.DefaultMessage = "Emergency! I need help!"
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 500
	}
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = 10 * time.Second
	}
	return &SOSService{repo: repo, validator: validate, cfg: cfg, logger: logger}
}

// NewFlow returns a closed flow bound to the principal and locator.
func (s *SOSService) NewFlow(p models.Principal, locator Locator) *SOSFlow {
	return &SOSFlow{
		principal: p,
		locator:   locator,
		repo:      s.repo,
		cfg:       s.cfg,
		logger:    s.logger,
		state:     SOSIdle,
	}
}

// Raise opens a flow, acquires a location from the locator and sends the alert.
func (s *SOSService) Raise(ctx context.Context, p models.Principal, locator Locator, message string) (*models.SosAlert, error) {
	flow := s.NewFlow(p, locator)
	if !flow.Open() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "SOS alerts are not available for administrators")
	}
	if _, err := flow.AcquireLocation(ctx); err != nil {
		return nil, err
	}
	return flow.Send(ctx, message)
}

// RaiseReported raises an alert from a location, or location failure, that
// the browser already obtained.
func (s *SOSService) RaiseReported(ctx context.Context, p models.Principal, req dto.SendAlertRequest) (*models.SosAlert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alert payload")
	}
	return s.Raise(ctx, p, ReportedLocator(req), req.Message)
}

// SOSSnapshot is a copy of the flow's state for rendering.
type SOSSnapshot struct {
	State       SOSState            `json:"state"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	Message     string              `json:"message,omitempty"`
	Error       string              `json:"error,omitempty"`
	Alert       *models.SosAlert    `json:"alert,omitempty"`
}

// SOSFlow is one SOS modal: IDLE → LOCATING → LOCATION_READY | LOCATION_ERROR
// → SENDING → SENT | SEND_ERROR. Reopening resets it, and results of calls
// that started before the reset are dropped.
type SOSFlow struct {
	principal models.Principal
	locator   Locator
	repo      alertCreator
	cfg       SOSConfig
	logger    *zap.Logger

	mu     sync.Mutex
	open   bool
	epoch  uint64
	state  SOSState
	coords *models.Coordinates
	err    error
	alert  *models.SosAlert
	msg    string
}

// ErrFlowReset reports that the flow was closed or reopened while a call was in flight.
var ErrFlowReset = errors.New("sos flow was reset")

// Open resets every prior result. It reports false, and does nothing, for
// principals that cannot raise alerts.
func (f *SOSFlow) Open() bool {
	if !f.principal.CanRaiseSOS() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.open = true
	f.state = SOSIdle
	f.coords = nil
	f.err = nil
	f.alert = nil
	f.msg = ""
	return true
}

// Close dismisses the modal; in-flight results are discarded.
func (f *SOSFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.open = false
	f.state = SOSIdle
	f.coords = nil
	f.err = nil
	f.alert = nil
	f.msg = ""
}

// Snapshot returns the current state.
func (f *SOSFlow) Snapshot() SOSSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := SOSSnapshot{State: f.state, Alert: f.alert, Message: f.msg}
	if f.coords != nil {
		c := *f.coords
		snap.Coordinates = &c
	}
	if f.err != nil {
		snap.Error = appErrors.FromError(f.err).Message
	}
	return snap
}

// AcquireLocation requests one fresh fix bounded by the configured timeout.
func (f *SOSFlow) AcquireLocation(ctx context.Context) (models.Coordinates, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return models.Coordinates{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "the SOS flow is not open")
	}
	if f.state == SOSLocating || f.state == SOSSending {
		f.mu.Unlock()
		return models.Coordinates{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "a request is already in progress")
	}
	if f.state == SOSSent {
		f.mu.Unlock()
		return models.Coordinates{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "alert already sent, reopen to send another alert")
	}
	epoch := f.epoch
	f.state = SOSLocating
	f.coords = nil
	f.err = nil
	f.mu.Unlock()

	locateCtx, cancel := context.WithTimeout(ctx, f.cfg.LocateTimeout)
	coords, err := f.locator.Locate(locateCtx)
	timedOut := errors.Is(locateCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err == nil && !coords.Valid() {
		err = &LocationError{Kind: LocationUnavailable, Err: fmt.Errorf("coordinates out of range: %s", coords)}
	}
	if err != nil {
		err = locationFailure(err, timedOut)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return models.Coordinates{}, ErrFlowReset
	}
	if err != nil {
		f.state = SOSLocationError
		f.err = err
		f.logger.Info("sos location failed", zap.String("principal", f.principal.ID.String()), zap.Error(err))
		return models.Coordinates{}, err
	}
	f.state = SOSLocationReady
	f.coords = &coords
	return coords, nil
}

// Send submits the alert at the acquired location. It is allowed from
// LOCATION_READY and, as a retry, from SEND_ERROR.
func (f *SOSFlow) Send(ctx context.Context, message string) (*models.SosAlert, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the SOS flow is not open")
	}
	if (f.state != SOSLocationReady && f.state != SOSSendError) || f.coords == nil {
		f.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "your location is required before sending an alert")
	}
	epoch := f.epoch
	coords := *f.coords
	msg := NormalizeAlertMessage(message, f.cfg.DefaultMessage, f.cfg.MaxMessageLength)
	f.state = SOSSending
	f.err = nil
	f.msg = msg
	f.mu.Unlock()

	alert, err := f.repo.Create(ctx, f.principal, repository.NewAlert{
		ReporterID: f.principal.ID,
		Latitude:   coords.Latitude,
		Longitude:  coords.Longitude,
		Message:    msg,
	})
	if err != nil && !isAuthFailure(err) {
		err = appErrors.WrapAs(err, appErrors.ErrSubmission, "failed to send SOS alert")
	}
	if err == nil && alert == nil {
		err = appErrors.Clone(appErrors.ErrSubmission, "failed to send SOS alert")
	}
	if f.cfg.Metrics != nil {
		f.cfg.Metrics.RecordSOS(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return nil, ErrFlowReset
	}
	if err != nil {
		f.state = SOSSendError
		f.err = err
		f.logger.Warn("sos alert failed", zap.String("principal", f.principal.ID.String()), zap.Error(err))
		return nil, err
	}
	f.state = SOSSent
	f.alert = alert
	f.logger.Info("sos alert sent", zap.Int64("alert_id", alert.ID), zap.String("principal", f.principal.ID.String()))
	return alert, nil
}

// NormalizeAlertMessage trims the message, substitutes the default when empty
// and caps it at max runes.
func NormalizeAlertMessage(message, fallback string, max int) string {
	message = strings.TrimSpace(message)
	if message == "" {
		message = fallback
	}
	if max > 0 && utf8.RuneCountInString(message) > max {
		runes := []rune(message)
		message = string(runes[:max])
	}
	return message
}

func locationFailure(err error, timedOut bool) error {
	var locErr *LocationError
	switch {
	case errors.As(err, &locErr):
	case timedOut || errors.Is(err, context.DeadlineExceeded):
		locErr = &LocationError{Kind: LocationTimeout, Err: err}
	default:
		locErr = &LocationError{Kind: LocationUnknown, Err: err}
	}
	return appErrors.WrapAs(locErr, appErrors.ErrLocation, locErr.Message())
}

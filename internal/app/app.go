// Package app wires one user's form, lifecycle, notifications and metrics
// together. Each front end owns one App per user.
package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"seasonal-menu/internal/form"
	"seasonal-menu/internal/lifecycle"
	"seasonal-menu/internal/menu"
	"seasonal-menu/internal/menuapi"
	"seasonal-menu/internal/metrics"
	"seasonal-menu/internal/notify"
	"seasonal-menu/internal/present"
)

// Recorder persists one metric per outbound attempt.
type Recorder interface {
	Record(ctx context.Context, m metrics.GenerationMetric) error
}

// App holds the application's dependencies.
type App struct {
	form      *form.Controller
	lifecycle *lifecycle.Controller
	generator lifecycle.Generator
	notifier  notify.Notifier
	recorder  Recorder
	logger    *zap.Logger
}

// Option customizes an App.
type Option func(*App)

// WithNotifier sets where success and failure notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithRecorder enables generation metrics.
func WithRecorder(r Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApp creates and initializes a new App instance.
func NewApp(gen lifecycle.Generator, opts ...Option) *App {
	a := &App{
		form:      form.New(),
		lifecycle: lifecycle.New(),
		generator: gen,
		notifier:  notify.Nop{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.lifecycle.OnTransition(a.onTransition)
	return a
}

// Form returns the form controller. It is not safe for concurrent use.
func (a *App) Form() *form.Controller { return a.form }

// State returns the active lifecycle state.
func (a *App) State() lifecycle.State { return a.lifecycle.State() }

// Generate submits the form. ok is false when the form is incomplete, in
// which case nothing happens.
func (a *App) Generate() (call lifecycle.Call, ok bool, err error) {
	s := &callCapture{lc: a.lifecycle}
	ok, err = a.form.Submit(s)
	if !ok || err != nil {
		return lifecycle.Call{}, false, err
	}
	return s.call, true, nil
}

// Retry re-issues the failed request unchanged.
func (a *App) Retry() (lifecycle.Call, error) {
	return a.lifecycle.Retry()
}

// Reset returns to an empty form.
func (a *App) Reset() {
	a.lifecycle.Reset()
	a.form.Clear()
}

// Fetch performs call and records its metric. It does not change state.
func (a *App) Fetch(ctx context.Context, call lifecycle.Call) lifecycle.Outcome {
	requestID := uuid.NewString()
	ctx = menuapi.WithRequestID(ctx, requestID)

	log := a.logger.With(
		zap.String("request_id", requestID),
		zap.Uint64("attempt", call.Attempt),
		zap.String("location", call.Request.Location),
		zap.String("season", call.Request.Season),
	)
	log.Debug("generating menu")

	o := call.Do(ctx, a.generator)

	kind, status := Classify(o.Err)
	log.Info("menu generation finished",
		zap.String("outcome", string(kind)),
		zap.Int("status", status),
		zap.Duration("latency", o.Latency),
	)

	if a.recorder != nil {
		err := a.recorder.Record(context.WithoutCancel(ctx), metrics.GenerationMetric{
			RequestID:  requestID,
			Location:   call.Request.Location,
			Season:     call.Request.Season,
			PlaceType:  call.Request.PlaceType,
			Outcome:    kind,
			StatusCode: status,
			LatencyMS:  o.Latency.Milliseconds(),
		})
		if err != nil {
			log.Warn("failed to record metric", zap.Error(err))
		}
	}
	return o
}

// Complete applies o and reports whether it was still current.
func (a *App) Complete(o lifecycle.Outcome) bool {
	applied := a.lifecycle.Complete(o)
	if !applied {
		a.logger.Debug("discarding stale outcome", zap.Uint64("attempt", o.Call.Attempt))
	}
	return applied
}

// Execute fetches and applies call, returning the resulting state.
func (a *App) Execute(ctx context.Context, call lifecycle.Call) lifecycle.State {
	a.Complete(a.Fetch(ctx, call))
	return a.State()
}

func (a *App) onTransition(t lifecycle.Transition) {
	a.logger.Debug("lifecycle transition",
		zap.Stringer("from", t.From.Phase()),
		zap.Stringer("to", t.To.Phase()),
	)
	if t.Outcome == nil {
		return
	}

	n := notify.Notification{Level: notify.LevelSuccess, Title: present.ToastSuccessTitle, Detail: present.ToastSuccessDetail}
	if failed, ok := t.To.(lifecycle.Failed); ok {
		n = notify.Notification{Level: notify.LevelFailure, Title: present.ToastFailureTitle, Detail: failed.Message}
	}
	if err := a.notifier.Notify(context.Background(), n); err != nil {
		a.logger.Warn("failed to deliver notification", zap.Error(err))
	}
}

// Classify labels err for metrics. status is the HTTP status when known.
func Classify(err error) (metrics.Outcome, int) {
	var statusErr *menuapi.StatusError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess, 0
	case errors.As(err, &statusErr):
		return metrics.OutcomeHTTPError, statusErr.StatusCode
	case errors.Is(err, menuapi.ErrTransport):
		return metrics.OutcomeTransportError, 0
	case errors.Is(err, menu.ErrMalformedResponse):
		return metrics.OutcomeMalformed, 0
	default:
		return metrics.OutcomeError, 0
	}
}

// callCapture adapts the lifecycle controller to form.Submitter and keeps
// the call it hands out.
type callCapture struct {
	lc   *lifecycle.Controller
	call lifecycle.Call
}

func (s *callCapture) Submit(req menu.Request) error {
	call, err := s.lc.Submit(req)
	if err != nil {
		return err
	}
	s.call = call
	return nil
}

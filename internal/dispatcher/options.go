package dispatcher

import (
	"time"

	"go.uber.org/zap"
)

// Dispatch outcomes reported to a Recorder.
const (
	OutcomeCompleted  = "completed"
	OutcomeClaimed    = "claimed"
	OutcomeFailed     = "failed"
	OutcomeUndeclared = "undeclared"
)

// Recorder receives dispatch measurements.
type Recorder interface {
	DispatchObserved(event, outcome string, elapsed time.Duration)
	HandlerFailed(event, handler string)
}

type nopRecorder struct{}

func (nopRecorder) DispatchObserved(string, string, time.Duration) {}
func (nopRecorder) HandlerFailed(string, string)                   {}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for registry diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

type registration struct {
	priority *int
}

// WithPriority registers the handler as ordered. Lower values run first; negative
// values are allowed and ties keep insertion order.
func WithPriority(priority int) RegisterOption {
	return func(r *registration) {
		p := priority
		r.priority = &p
	}
}

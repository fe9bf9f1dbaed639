package persist

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/saveq"
)

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithDebounce sets the quiet period of the debounced channel.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) error {
		if d <= 0 {
			return errors.New("debounce delay must be positive")
		}
		c.debounceDelay = d
		return nil
	}
}

// WithStatusWindows sets how long Saved and Error are displayed before the
// status returns to Idle.
func WithStatusWindows(saved, failed time.Duration) Option {
	return func(c *Coordinator) error {
		if saved < 0 || failed < 0 {
			return errors.New("status windows cannot be negative")
		}
		c.savedWindow = saved
		c.errorWindow = failed
		return nil
	}
}

// WithExecutor runs saves on a shared executor. The caller keeps ownership
// and must stop it.
func WithExecutor(e *saveq.Executor) Option {
	return func(c *Coordinator) error {
		if e == nil {
			return errors.New("executor cannot be nil")
		}
		c.exec = e
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) error {
		c.log = l
		return nil
	}
}

// WithStatusListener registers fn to observe every status transition. fn may
// be called from timer goroutines and must not call back into the Coordinator
// synchronously for writes.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Coordinator) error {
		c.onStatus = fn
		return nil
	}
}

// WithErrorHandler registers fn to receive every failed save.
func WithErrorHandler(fn func(Channel, error)) Option {
	return func(c *Coordinator) error {
		c.onError = fn
		return nil
	}
}

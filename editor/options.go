package editor

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/saveq"
)

// Option configures a Session.
type Option func(*Session) error

// WithNavigator sets the navigation port. Defaults to a no-op that confirms
// every prompt.
func WithNavigator(n Navigator) Option {
	return func(s *Session) error {
		if n == nil {
			return errors.New("navigator cannot be nil")
		}
		s.nav = n
		return nil
	}
}

// WithNotifier sets the notice port.
func WithNotifier(n Notifier) Option {
	return func(s *Session) error {
		if n == nil {
			return errors.New("notifier cannot be nil")
		}
		s.notifier = n
		return nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) error {
		s.log = l
		return nil
	}
}

// WithDebounce sets the quiet period before free-text edits are saved.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		s.debounce = d
		return nil
	}
}

// WithStatusWindows sets how long Saved and Error stay visible.
func WithStatusWindows(saved, failed time.Duration) Option {
	return func(s *Session) error {
		if saved < 0 || failed < 0 {
			return errors.New("status windows cannot be negative")
		}
		s.savedWindow, s.errorWindow = saved, failed
		return nil
	}
}

// WithRedirectDelay sets how long a notice stays visible before an
// automatic redirect.
func WithRedirectDelay(d time.Duration) Option {
	return func(s *Session) error {
		if d < 0 {
			return errors.New("redirect delay cannot be negative")
		}
		s.redirectDelay = d
		return nil
	}
}

// WithExecutor shares a save executor between sessions. The caller stops it.
func WithExecutor(e *saveq.Executor) Option {
	return func(s *Session) error {
		if e == nil {
			return errors.New("executor cannot be nil")
		}
		s.exec = e
		return nil
	}
}

// WithStatusListener observes save status transitions.
func WithStatusListener(fn func(Status)) Option {
	return func(s *Session) error {
		s.onStatus = fn
		return nil
	}
}

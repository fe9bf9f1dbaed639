package remote

// Functional options that configure the Client during construction.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in NewClient.
//
// Options are applied before the bearer-token wrapper is installed, so
// transport-related options (like debug logging) sit underneath it.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout. The value must be
// greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithTransport replaces the base round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.http.Transport = rt
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true. Do not enable in production: dumps include
// request bodies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}

// WithLoadRetry bounds retries of load calls on recoverable failures.
// attempts counts the first try; 1 disables retries.
func WithLoadRetry(attempts int, initial time.Duration) Option {
	return func(c *Client) error {
		if attempts < 1 {
			return fmt.Errorf("load attempts must be >= 1")
		}
		if initial <= 0 {
			return fmt.Errorf("load backoff must be > 0")
		}
		c.loadAttempts = attempts
		c.loadBackoff = initial
		return nil
	}
}

// WithLogger sets the logger used for client diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l.With().Str("component", "remote").Logger()
		return nil
	}
}

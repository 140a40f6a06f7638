package playbilling

import (
	"log/slog"
	"strings"
	"time"

	"github.com/lucasviinic/flashly-api/pkg/metrics"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for fallback warnings and failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBaseURL overrides the Android Publisher host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the time source used for activity checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithUnknownStateDefault sets the state applied when the provider omits the
// subscription state or returns an unrecognised one.
func WithUnknownStateDefault(s State) Option {
	return func(c *Client) {
		if s.Known() {
			c.unknownState = s
		}
	}
}

// WithCircuitBreaker configures the failure threshold and recovery window.
func WithCircuitBreaker(threshold int, recovery time.Duration) Option {
	return func(c *Client) {
		c.circuitThreshold = threshold
		c.circuitRecovery = recovery
	}
}

// WithMetrics records verification outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// ParseStateDefault maps a config value to a fallback state.
func ParseStateDefault(v string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "active":
		return StateActive, nil
	case "expired":
		return StateExpired, nil
	default:
		return "", ErrInvalidStateDefault
	}
}

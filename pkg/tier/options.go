package tier

import (
	"log/slog"
	"time"

	"github.com/lucasviinic/flashly-api/pkg/metrics"
)

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDisplayCache enables the cache used by Cached.
func WithDisplayCache(c DisplayCache) Option {
	return func(r *Resolver) { r.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

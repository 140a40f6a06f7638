package study

import (
	"log/slog"
	"time"
)

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator enables GenerateFlashcards.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.generator = g }
}

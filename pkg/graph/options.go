package graph

import (
	"log/slog"

	"github.com/dukex/operion-designer/pkg/notify"
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.nextID = next
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier publishes committed changes through n.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithChangeFunc subscribes fn to committed changes.
func WithChangeFunc(fn notify.ChangeFunc) Option {
	return func(s *Store) {
		s.pending = append(s.pending, fn)
	}
}

// Package worker delivers queued results through a Sender.
package worker

import (
	"time"

	"github.com/okian/topsis/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMaxAttempts caps the number of send attempts per delivery.
func WithMaxAttempts(n int) Option {
	return func(w *InMemoryWorker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between attempts. The n-th retry waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.backoff = d
		}
	}
}

// withStats shares pool-wide counters with the worker.
func withStats(s *Stats) Option {
	return func(w *InMemoryWorker) {
		if s != nil {
			w.stats = s
		}
	}
}

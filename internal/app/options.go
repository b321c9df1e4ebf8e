package service

import (
	"time"

	"github.com/okian/topsis/internal/adapters/mq/worker"
	"github.com/okian/topsis/internal/domain/scoring"
	"github.com/okian/topsis/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoader replaces the tabular loader.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithScorer replaces the scoring engine.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSender enables asynchronous delivery through sender.
func WithSender(sender worker.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithQueueSize sets the maximum number of pending deliveries.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxAttempts caps send attempts per delivery.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between delivery attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryBackoff = d
		}
	}
}

// WithResultFilename sets the attachment name of delivered results.
func WithResultFilename(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.resultFilename = name
		}
	}
}

// WithDedupeWindow suppresses repeated deliveries of the same result to the
// same recipient within d. Zero disables suppression.
func WithDedupeWindow(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.dedupeWindow = d
		}
	}
}

// WithDedupeSize bounds the number of remembered deliveries.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// Package service runs the TOPSIS pipeline for the HTTP API and the CLI:
// parse weights and impacts, load the source, validate, score, rank and
// serialize, optionally handing the result to the delivery workers.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/topsis/internal/adapters/mq/queue"
	"github.com/okian/topsis/internal/adapters/mq/worker"
	"github.com/okian/topsis/internal/adapters/tabular"
	"github.com/okian/topsis/internal/domain/dedupe"
	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/internal/domain/scoring"
	"github.com/okian/topsis/internal/domain/validation"
	"github.com/okian/topsis/pkg/logger"
	"github.com/okian/topsis/pkg/metrics"
)

const (
	defaultQueueSize      = 1_000
	defaultMaxAttempts    = 3
	defaultRetryBackoff   = 2 * time.Second
	defaultResultFilename = "result.csv"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// ValidEmail reports whether addr looks like an e-mail address.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Loader reads a tabular source into a dataset.
type Loader interface {
	Load(ctx context.Context, src tabular.Source) (*model.Dataset, error)
}

// Report is the outcome of one evaluation: the augmented table plus the
// engine's intermediate values.
type Report struct {
	RunID    string
	Criteria []string
	Weights  model.Weights
	Impacts  []model.Impact
	Result   *model.Result
	Trace    *scoring.Evaluation
	Elapsed  time.Duration
}

// Service wires loading, validation, scoring and delivery together.
type Service struct {
	mu sync.RWMutex

	loader Loader
	scorer scoring.Scorer
	sender worker.Sender

	deliveries *queue.InMemoryQueue
	pool       *worker.Pool
	deduper    dedupe.Deduper
	// enqueueMu spans the dedupe lookup and the enqueue it guards.
	enqueueMu sync.Mutex

	queueSize      int
	workerCount    int
	maxAttempts    int
	retryBackoff   time.Duration
	resultFilename string
	dedupeWindow   time.Duration
	dedupeSize     int

	started bool
	runs    atomic.Int64
	failed  atomic.Int64
	queued  atomic.Int64
	dupes   atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Without a sender the service runs
// synchronously only and Submit fails with ErrDeliveryDisabled.
func New(opts ...Option) *Service {
	s := &Service{
		loader:         tabular.NewLoader(),
		scorer:         scoring.NewEngine(),
		queueSize:      defaultQueueSize,
		workerCount:    runtime.NumCPU(),
		maxAttempts:    defaultMaxAttempts,
		retryBackoff:   defaultRetryBackoff,
		resultFilename: defaultResultFilename,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.dedupeWindow > 0 {
		dopts := []dedupe.Option{dedupe.WithTTL(s.dedupeWindow)}
		if s.dedupeSize > 0 {
			dopts = append(dopts, dedupe.WithMaxSize(s.dedupeSize))
		}
		s.deduper = dedupe.NewInMemoryDeduper(dopts...)
	}
	return s
}

// Start launches the delivery workers when a sender is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.sender != nil {
		s.deliveries = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		// Workers outlive the request that started the service; only
		// Stop ends them.
		s.pool = worker.NewPool(s.workerCount, s.deliveries, s.sender,
			worker.WithMaxAttempts(s.maxAttempts),
			worker.WithBackoff(s.retryBackoff),
		)
		s.pool.Start(context.WithoutCancel(ctx))
	}

	s.started = true
	s.logger.Info(ctx, "topsis service started",
		logger.Any("delivery_enabled", s.sender != nil),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop stops accepting deliveries and waits for queued ones to be sent.
func (s *Service) Stop() {
	s.StopContext(context.Background())
}

// StopContext is Stop bounded by ctx.
func (s *Service) StopContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping topsis service...")
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "delivery workers did not drain", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "topsis service stopped")
}

// Run loads src, scores it and writes the augmented table to sink as CSV.
// Nothing is written to sink unless the whole pipeline succeeds.
func (s *Service) Run(ctx context.Context, src tabular.Source, weights, impacts string, sink io.Writer) error {
	rep, err := s.Evaluate(ctx, src, weights, impacts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, rep.Result); err != nil {
		return fmt.Errorf("serialize result: %w", err)
	}
	if _, err := buf.WriteTo(sink); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Evaluate runs the pipeline without serializing the result.
func (s *Service) Evaluate(ctx context.Context, src tabular.Source, weights, impacts string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithRequestID(ctx, s.logger).With(
		logger.String("run_id", runID),
		logger.String("source", src.Name()),
	)

	rep, err := s.evaluate(ctx, src, weights, impacts)
	elapsed := time.Since(start)
	s.runs.Add(1)

	if err != nil {
		s.failed.Add(1)
		code := model.KindCode(err)
		metrics.RecordRunFailure(code, float64(elapsed.Milliseconds()))
		log.Warn(ctx, "topsis run failed",
			logger.String("kind", code),
			logger.Error(err),
		)
		return nil, err
	}

	rep.RunID = runID
	rep.Elapsed = elapsed
	metrics.RecordRunSuccess(rep.Result.Dataset.Len(), len(rep.Criteria), float64(elapsed.Milliseconds()))
	log.Info(ctx, "topsis run completed",
		logger.Int("rows", rep.Result.Dataset.Len()),
		logger.Int("criteria", len(rep.Criteria)),
		logger.String("elapsed", elapsed.String()),
	)
	return rep, nil
}

func (s *Service) evaluate(ctx context.Context, src tabular.Source, weights, impacts string) (*Report, error) {
	w, err := model.ParseWeights(weights)
	if err != nil {
		return nil, err
	}
	imp := model.ParseImpacts(impacts)

	ds, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	matrix, err := validation.Validate(ds, w, imp)
	if err != nil {
		return nil, err
	}

	trace, err := s.scorer.Evaluate(scoring.Input{Matrix: matrix, Weights: w, Impacts: imp})
	if err != nil {
		return nil, err
	}

	return &Report{
		Criteria: ds.CriteriaNames(),
		Weights:  w,
		Impacts:  imp,
		Result:   &model.Result{Dataset: ds, Scores: trace.Scores, Ranks: trace.Ranks},
		Trace:    trace,
	}, nil
}

// Submit validates email, runs the pipeline synchronously and queues the
// serialized result for delivery. Pipeline errors are returned directly;
// the returned job id identifies the queued delivery. With a dedupe window,
// resubmitting the same result to the same recipient returns the earlier
// job id instead of queueing a second mail. A job id is only ever handed
// out for a delivery that made it into the queue.
func (s *Service) Submit(ctx context.Context, src tabular.Source, weights, impacts, email string) (string, error) {
	if !ValidEmail(email) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	s.mu.RLock()
	deliveries, started := s.deliveries, s.started
	s.mu.RUnlock()

	if s.sender == nil {
		return "", ErrDeliveryDisabled
	}
	if !started || deliveries == nil {
		return "", ErrNotStarted
	}

	var buf bytes.Buffer
	if err := s.Run(ctx, src, weights, impacts, &buf); err != nil {
		return "", err
	}

	d := model.Delivery{
		JobID:      uuid.NewString(),
		Recipient:  email,
		Filename:   s.resultFilename,
		Attachment: buf.Bytes(),
		CreatedAt:  time.Now(),
	}

	var key string
	if s.deduper != nil {
		key = dedupe.Key(d.Recipient, d.Attachment)
		s.enqueueMu.Lock()
		defer s.enqueueMu.Unlock()
		if prev, seen := s.deduper.SeenAndRecord(ctx, key, d.JobID); seen {
			s.dupes.Add(1)
			logger.WithRequestID(ctx, s.logger).Info(ctx, "duplicate delivery suppressed",
				logger.String("job_id", prev),
			)
			return prev, nil
		}
	}

	if err := deliveries.Enqueue(ctx, d); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		switch {
		case errors.Is(err, queue.ErrFull):
			return "", ErrBackpressure
		case errors.Is(err, queue.ErrClosed):
			return "", ErrNotStarted
		default:
			return "", err
		}
	}
	s.queued.Add(1)

	logger.WithRequestID(ctx, s.logger).Info(ctx, "result queued for delivery",
		logger.String("job_id", d.JobID),
		logger.Int("bytes", len(d.Attachment)),
	)
	return d.JobID, nil
}

// DeliveryEnabled reports whether Submit can queue deliveries.
func (s *Service) DeliveryEnabled() bool {
	return s.sender != nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"deliveryEnabled": s.sender != nil,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"runs":            s.runs.Load(),
		"runFailures":     s.failed.Load(),
		"queued":          s.queued.Load(),
		"duplicates":      s.dupes.Load(),
	}

	if s.deliveries != nil {
		stats["queueLength"] = s.deliveries.Len()
	}
	if s.pool != nil {
		snap := s.pool.Stats()
		stats["deliveriesSent"] = snap.Sent
		stats["deliveriesFailed"] = snap.Failed
		stats["deliveryRetries"] = snap.Retried
	}

	return stats
}

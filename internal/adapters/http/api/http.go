// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/topsis/internal/adapters/tabular"
	service "github.com/okian/topsis/internal/app"
	"github.com/okian/topsis/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Run scores src and writes the augmented CSV to sink.
	Run(ctx context.Context, src tabular.Source, weights, impacts string, sink io.Writer) error

	// Evaluate scores src and returns the result with every intermediate value.
	Evaluate(ctx context.Context, src tabular.Source, weights, impacts string) (*service.Report, error)

	// Submit scores src and queues the result for e-mail delivery.
	Submit(ctx context.Context, src tabular.Source, weights, impacts, email string) (string, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes bounds the request body of upload endpoints.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	processHandler *ProcessHandler

	maxUploadBytes int64
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.processHandler = NewProcessHandler(deps, s.maxUploadBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/process", MetricsMiddleware(s.processHandler.HandleProcess, "process"))
	r.Post("/explain", MetricsMiddleware(s.processHandler.HandleExplain, "explain"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

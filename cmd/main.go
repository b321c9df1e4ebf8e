package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/topsis/internal/adapters/http/api"
	"github.com/okian/topsis/internal/adapters/http/site"
	"github.com/okian/topsis/internal/adapters/http/swagger"
	"github.com/okian/topsis/internal/adapters/mailer"
	"github.com/okian/topsis/internal/adapters/tabular"
	app "github.com/okian/topsis/internal/app"
	"github.com/okian/topsis/internal/config"
	"github.com/okian/topsis/pkg/logger"
	"github.com/okian/topsis/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	smtpTimeout            = 30 * time.Second
)

// Well-known SMTP ports.
const (
	smtpsPort = 465
	smtpPort  = 25
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Any("delivery", svc.DeliveryEnabled()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	svc.StopContext(shutdownCtx)

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the TOPSIS service from configuration. E-mail delivery
// is only wired when an SMTP host is configured.
func newService(cfg *config.Config, l logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(l.Named("service")),
		app.WithLoader(tabular.NewLoader(tabular.WithDelimiter(cfg.Delimiter()))),
		app.WithQueueSize(cfg.DeliveryQueueSize),
		app.WithWorkerCount(cfg.DeliveryWorkers),
		app.WithMaxAttempts(cfg.DeliveryMaxAttempts),
		app.WithDedupeWindow(time.Duration(cfg.DeliveryDedupeWindowSec) * time.Second),
	}
	if cfg.DeliveryEnabled() {
		opts = append(opts, app.WithSender(newMailer(cfg)))
	}
	return app.New(opts...)
}

func newMailer(cfg *config.Config) *mailer.SMTP {
	return mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom,
		mailer.WithCredentials(cfg.SMTPUsername, cfg.SMTPPassword),
		mailer.WithSubject(cfg.MailSubject),
		mailer.WithTLSMode(tlsModeForPort(cfg.SMTPPort)),
		mailer.WithTimeout(smtpTimeout),
	)
}

// tlsModeForPort picks implicit TLS for 465, clear text for 25 and
// STARTTLS for anything else (587 in practice).
func tlsModeForPort(port int) mailer.TLSMode {
	switch port {
	case smtpsPort:
		return mailer.TLSImplicit
	case smtpPort:
		return mailer.TLSNone
	default:
		return mailer.TLSStartTLS
	}
}

// newRouter mounts the upload page, the API docs and the JSON/CSV API.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service, l logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(l.Named("http")))

	site.Register(ctx, r, site.PageData{
		Title:           "TOPSIS",
		DeliveryEnabled: svc.DeliveryEnabled(),
	})
	swagger.Register(ctx, r)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(l.Named("api")),
	)
	apiServer.Register(ctx, r)
	return r
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics refreshes the queue gauges from the service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
		if size, ok := stats["queueSize"].(int); ok && size > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(size))
		}
	}
}

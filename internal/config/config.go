// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and TOPSIS_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes bounds the size of an uploaded source file.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CSVDelimiter is the field separator for delimited text sources.
	CSVDelimiter string `koanf:"csv_delimiter"`

	// DeliveryQueueSize bounds the in-memory e-mail delivery queue.
	DeliveryQueueSize int `koanf:"delivery_queue_size"`

	// DeliveryWorkers sets the number of delivery workers.
	DeliveryWorkers int `koanf:"delivery_workers"`

	// DeliveryMaxAttempts caps send attempts per delivery job.
	DeliveryMaxAttempts int `koanf:"delivery_max_attempts"`

	// DeliveryDedupeWindowSec suppresses a repeated delivery of the same
	// result to the same recipient for this many seconds. 0 disables it.
	DeliveryDedupeWindowSec int `koanf:"delivery_dedupe_window_sec"`

	// SMTP settings. Delivery is disabled while SMTPHost is empty.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	MailFrom     string `koanf:"mail_from"`
	MailSubject  string `koanf:"mail_subject"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		MaxUploadBytes:          10 << 20,
		CSVDelimiter:            ",",
		DeliveryQueueSize:       1_000,
		DeliveryWorkers:         runtime.NumCPU(),
		DeliveryMaxAttempts:     3,
		DeliveryDedupeWindowSec: 600,
		SMTPPort:                465,
		MailSubject:             "TOPSIS Result",
	}
}

// DeliveryEnabled reports whether SMTP delivery is configured.
func (c *Config) DeliveryEnabled() bool {
	return c.SMTPHost != ""
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("%w: csv_delimiter must be a single character", ErrInvalidConfig)
	}
	if d := c.Delimiter(); d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
		return fmt.Errorf("%w: csv_delimiter %q is not allowed", ErrInvalidConfig, c.CSVDelimiter)
	}
	if c.DeliveryQueueSize <= 0 {
		return fmt.Errorf("%w: delivery_queue_size must be positive", ErrInvalidConfig)
	}
	if c.DeliveryWorkers <= 0 {
		return fmt.Errorf("%w: delivery_workers must be positive", ErrInvalidConfig)
	}
	if c.DeliveryMaxAttempts <= 0 {
		return fmt.Errorf("%w: delivery_max_attempts must be positive", ErrInvalidConfig)
	}
	if c.DeliveryDedupeWindowSec < 0 {
		return fmt.Errorf("%w: delivery_dedupe_window_sec must not be negative", ErrInvalidConfig)
	}
	if c.DeliveryEnabled() {
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			return fmt.Errorf("%w: smtp_port %d out of range", ErrInvalidConfig, c.SMTPPort)
		}
		if c.MailFrom == "" {
			return fmt.Errorf("%w: mail_from is required when smtp_host is set", ErrInvalidConfig)
		}
	}
	return nil
}

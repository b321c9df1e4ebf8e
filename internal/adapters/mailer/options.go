package mailer

import (
	"crypto/tls"
	"time"
)

// TLSMode selects how the SMTP connection is secured.
type TLSMode int

const (
	// TLSImplicit dials straight into TLS (SMTPS, usually port 465).
	TLSImplicit TLSMode = iota
	// TLSStartTLS upgrades a plain connection with STARTTLS.
	TLSStartTLS
	// TLSNone sends in clear text. Only meant for local relays and tests.
	TLSNone
)

// Option applies a configuration option to the SMTP mailer.
type Option func(*SMTP)

// WithCredentials enables PLAIN authentication.
func WithCredentials(username, password string) Option {
	return func(m *SMTP) {
		m.username = username
		m.password = password
	}
}

// WithSubject sets the message subject.
func WithSubject(subject string) Option {
	return func(m *SMTP) {
		if subject != "" {
			m.subject = subject
		}
	}
}

// WithBody sets the plain-text message body.
func WithBody(body string) Option {
	return func(m *SMTP) {
		if body != "" {
			m.body = body
		}
	}
}

// WithTLSMode selects the transport security mode.
func WithTLSMode(mode TLSMode) Option {
	return func(m *SMTP) {
		m.tlsMode = mode
	}
}

// WithTLSConfig overrides the TLS client configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(m *SMTP) {
		if cfg != nil {
			m.tlsConfig = cfg
		}
	}
}

// WithTimeout bounds dialing and the whole SMTP exchange.
func WithTimeout(d time.Duration) Option {
	return func(m *SMTP) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// Package mailer sends finished result tables as e-mail attachments.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/okian/topsis/internal/adapters/mq/worker"
	"github.com/okian/topsis/internal/domain/model"
)

const (
	defaultSubject = "TOPSIS Result"
	defaultBody    = "Attached is your TOPSIS result."
	defaultTimeout = 30 * time.Second
)

// SMTP implements worker.Sender over an SMTP relay.
type SMTP struct {
	host      string
	port      int
	from      string
	username  string
	password  string
	subject   string
	body      string
	tlsMode   TLSMode
	tlsConfig *tls.Config
	timeout   time.Duration
	now       func() time.Time
}

var _ worker.Sender = (*SMTP)(nil)

// New creates an SMTP mailer for host:port sending as from.
func New(host string, port int, from string, opts ...Option) *SMTP {
	m := &SMTP{
		host:      host,
		port:      port,
		from:      from,
		subject:   defaultSubject,
		body:      defaultBody,
		tlsMode:   TLSImplicit,
		tlsConfig: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		timeout:   defaultTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send delivers d to its recipient. Rejections with a 5xx reply are
// returned as permanent errors.
func (m *SMTP) Send(ctx context.Context, d model.Delivery) error { //nolint:gocritic // hugeParam: value semantics
	msg, err := BuildMessage(m.from, m.subject, m.body, d, m.now())
	if err != nil {
		return worker.Permanent(err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: dial: %w", ErrSend, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock the exchange if ctx is cancelled mid-conversation.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := m.exchange(conn, msg); err != nil {
		return classify(err)
	}
	return nil
}

func (m *SMTP) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	d := &net.Dialer{}
	if m.tlsMode == TLSImplicit {
		td := &tls.Dialer{NetDialer: d, Config: m.tlsConfig}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (m *SMTP) exchange(conn net.Conn, msg *Message) error {
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if m.tlsMode == TLSStartTLS {
		if err := c.StartTLS(m.tlsConfig); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return err
		}
	}
	if err := c.Mail(msg.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg.Data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// classify marks permanent SMTP replies so the worker skips retries.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 {
		return worker.Permanent(fmt.Errorf("%w: %w", ErrSend, err))
	}
	return fmt.Errorf("%w: %w", ErrSend, err)
}

package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"github.com/okian/topsis/internal/domain/model"
)

const base64LineLength = 76

// Message is a rendered e-mail ready for the DATA command.
type Message struct {
	From string
	To   string
	Data []byte
}

// BuildMessage renders a multipart/mixed message with a text part and the
// delivery's attachment encoded as base64.
func BuildMessage(from, subject, body string, d model.Delivery, now time.Time) (*Message, error) { //nolint:gocritic // hugeParam: value semantics
	if from == "" {
		return nil, ErrNoSender
	}
	if d.Recipient == "" {
		return nil, ErrNoRecipient
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ k, v string }{
		{"From", from},
		{"To", d.Recipient},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@topsis>", uuid.NewString())},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary())},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.k, h.v)
	}
	buf.WriteString("\r\n")

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, fmt.Errorf("text part: %w", err)
	}
	if _, err := fmt.Fprintf(text, "%s\r\n", body); err != nil {
		return nil, fmt.Errorf("text part: %w", err)
	}

	filename := d.Filename
	if filename == "" {
		filename = "result.csv"
	}
	att, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType("text/csv", map[string]string{"name": filename})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("attachment part: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(d.Attachment)
	for len(encoded) > base64LineLength {
		if _, err := fmt.Fprintf(att, "%s\r\n", encoded[:base64LineLength]); err != nil {
			return nil, fmt.Errorf("attachment part: %w", err)
		}
		encoded = encoded[base64LineLength:]
	}
	if _, err := fmt.Fprintf(att, "%s\r\n", encoded); err != nil {
		return nil, fmt.Errorf("attachment part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return &Message{From: from, To: d.Recipient, Data: buf.Bytes()}, nil
}

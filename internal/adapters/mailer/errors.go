package mailer

import "errors"

// Sentinel kinds for mailer errors.
var (
	ErrNoRecipient = errors.New("mailer: recipient is required")
	ErrNoSender    = errors.New("mailer: from address is required")
	ErrSend        = errors.New("mailer: send failed")
)

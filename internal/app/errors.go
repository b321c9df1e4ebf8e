package service

import "errors"

// Sentinel kinds for service errors. Pipeline failures keep the domain
// kinds from the model package.
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrBackpressure     = errors.New("delivery queue is full")
	ErrDeliveryDisabled = errors.New("e-mail delivery is not configured")
	ErrNotStarted       = errors.New("service not started")
)

package worker

import (
	"errors"
	"fmt"
)

// Sentinel kinds for worker errors.
var (
	ErrStopped   = errors.New("worker stopped")
	ErrPermanent = errors.New("permanent delivery failure")
)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

package api

import (
	"errors"
	"net/http"

	service "github.com/okian/topsis/internal/app"
	"github.com/okian/topsis/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoFile     = errors.New("missing file upload")
)

// statusFor maps an error to its HTTP status and stable error code.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, model.KindCode(err)
	case errors.Is(err, model.ErrSourceNotFound), errors.Is(err, model.ErrWeightParse):
		return http.StatusBadRequest, model.KindCode(err)
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrNoFile):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrDeliveryDisabled):
		return http.StatusServiceUnavailable, "delivery_disabled"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "service_unavailable"
	case model.KindOf(err) != nil:
		return http.StatusUnprocessableEntity, model.KindCode(err)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

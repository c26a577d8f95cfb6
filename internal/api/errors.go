package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrImageRefSet):
		return http.StatusConflict
	case errors.Is(err, model.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes err as a JSON error. Internal errors are logged and
// replaced with a generic message.
func serviceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error(msg, zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		jsonError(w, status, msg)
	case http.StatusServiceUnavailable:
		logger.Warn(msg, zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		w.Header().Set("Retry-After", "1")
		jsonError(w, status, "service temporarily unavailable, retry later")
	default:
		jsonError(w, status, err.Error())
	}
}

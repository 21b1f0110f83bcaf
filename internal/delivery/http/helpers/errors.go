package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"meetapp/internal/domain"
)

// RetryAfterSeconds is advertised on 503 responses caused by a transient store failure.
const RetryAfterSeconds = "1"

type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrPastDate, http.StatusBadRequest, ErrCodePastDate},
	{domain.ErrAttachmentNotFound, http.StatusBadRequest, ErrCodeAttachmentNotFound},
	{domain.ErrNotOrganizer, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrMeetupNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrScheduleConflict, http.StatusConflict, ErrCodeScheduleConflict},
	{domain.ErrAlreadySubscribed, http.StatusConflict, ErrCodeAlreadySubscribed},
	{domain.ErrDoubleBooking, http.StatusConflict, ErrCodeDoubleBooking},
	{domain.ErrAlreadyOccurred, http.StatusUnprocessableEntity, ErrCodeAlreadyOccurred},
	{domain.ErrSelfSubscription, http.StatusUnprocessableEntity, ErrCodeSelfSubscription},
}

// WriteDomainError writes the envelope matching a service error. Unknown
// errors are logged and reported as internal_error without their details.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			WriteJSONError(w, m.status, m.code, err.Error())
			return
		}
	}
	if domain.IsRetryable(err) {
		logger.WarnContext(r.Context(), "store unavailable", "path", r.URL.Path, "method", r.Method, "err", err)
		w.Header().Set("Retry-After", RetryAfterSeconds)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "service temporarily unavailable, retry later")
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}

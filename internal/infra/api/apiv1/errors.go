package apiv1

import (
	"errors"
	"net/http"
	"strings"

	"activation-gate/internal/domain"
)

var reasonStatus = map[ErrorReason]int{
	INVALIDINPUT: http.StatusBadRequest,
	UNAUTHORIZED: http.StatusUnauthorized,
	NOTFOUND:     http.StatusNotFound,
	ALREADYUSED:  http.StatusConflict,
	DISABLED:     http.StatusConflict,
	CONFLICT:     http.StatusConflict,
	RATELIMITED:  http.StatusTooManyRequests,
	UNAVAILABLE:  http.StatusServiceUnavailable,
}

// toError maps a use-case error onto its HTTP status and wire body.
// Store details never reach the client.
func toError(err error) (int, *Error) {
	reason := ErrorReason(domain.Reason(err))
	body := &Error{Reason: reason, Message: message(reason, err)}

	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		body.UsedAt = rej.UsedAt
		body.BoundDeviceMasked = optString(rej.MaskedDevice)
	}
	status, ok := reasonStatus[reason]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, body
}

func message(reason ErrorReason, err error) string {
	switch reason {
	case INVALIDINPUT:
		return err.Error()
	case NOTFOUND:
		return "activation code not found"
	case ALREADYUSED:
		return "activation code is already in use on another device"
	case DISABLED:
		return "activation code has been disabled"
	case CONFLICT:
		if errors.Is(err, domain.ErrAlreadyExists) {
			return "activation code already exists"
		}
		return "request conflicted with a concurrent change, try again"
	case UNAUTHORIZED:
		return "authentication required"
	default:
		return "service temporarily unavailable"
	}
}

// messageKey is the catalog key for the message of err.
func messageKey(reason ErrorReason, err error) string {
	if reason == CONFLICT && errors.Is(err, domain.ErrAlreadyExists) {
		return "error.already_exists"
	}
	return "error." + strings.ToLower(string(reason))
}

// WriteError writes err in the v1 error envelope. Used by middleware that
// runs outside the generated handlers.
func WriteError(w http.ResponseWriter, status int, reason ErrorReason, msg string) {
	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, &Error{Reason: reason, Message: msg})
}

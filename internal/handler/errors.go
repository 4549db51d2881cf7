package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// errorResponse is the envelope of every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	BlockedBy *uuid.UUID `json:"blocked_by,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service layer
// (e.g. missing or malformed body, unparsable parameter).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// writeServiceError maps a service error onto its HTTP status and error code.
// Storage outages get a generic retry message; anything unrecognised is a 500
// and is logged with the request path.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		body := errorResponse{Error: errorDetail{Code: "date_conflict", Message: domain.ErrDateConflict.Error()}}
		if conflict.BlockedBy != uuid.Nil {
			id := conflict.BlockedBy
			body.Error.BlockedBy = &id
		}
		writeJSON(w, http.StatusConflict, body)
	case errors.Is(err, domain.ErrCabinNotFound):
		writeError(w, http.StatusNotFound, "not_found", "cabin not found")
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "not_found", "reservation not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusUnprocessableEntity, "invalid_date_range", unwrapMessage(err, domain.ErrInvalidDateRange))
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusUnprocessableEntity, "capacity_exceeded", unwrapMessage(err, domain.ErrCapacityExceeded))
	case errors.Is(err, domain.ErrNegativeAmount):
		writeError(w, http.StatusUnprocessableEntity, "negative_amount", domain.ErrNegativeAmount.Error())
	case errors.Is(err, domain.ErrOverpayment):
		writeError(w, http.StatusUnprocessableEntity, "overpayment", unwrapMessage(err, domain.ErrOverpayment))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", unwrapMessage(err, domain.ErrInvalidTransition))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "not allowed to act on this reservation")
	case errors.Is(err, domain.ErrStorageUnavailable):
		s.log.WarnContext(r.Context(), "storage unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "service temporarily unavailable, please retry")
	default:
		s.log.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error,
// dropping the layer prefixes in front of it.
// e.g. "service.ReservationService.Create: validation error: at least one guest is required"
// → "at least one guest is required"
func unwrapMessage(err, sentinel error) string {
	msg, s := err.Error(), sentinel.Error()
	i := strings.Index(msg, s)
	if i < 0 {
		return s
	}
	rest := strings.TrimPrefix(msg[i+len(s):], ": ")
	switch {
	case rest == "":
		return s
	case errors.Is(sentinel, domain.ErrValidation):
		return rest
	}
	return s + ": " + rest
}

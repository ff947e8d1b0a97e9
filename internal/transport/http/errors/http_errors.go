package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
)

const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeNotEnoughPermissions = "NOT_ENOUGH_PERMISSIONS"
	CodeObjectNotFound       = "OBJECT_NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// FromError maps a service error onto a status and body. Validation errors
// keep their message; everything unknown is reported as a bare 500.
func FromError(err error) (int, APIError) {
	switch {
	case stderrors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Message: "authentication required"}
	case stderrors.Is(err, apperr.ErrNotEnoughPermissions):
		return http.StatusForbidden, APIError{Code: CodeNotEnoughPermissions, Message: "not enough permissions"}
	case stderrors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, APIError{Code: CodeObjectNotFound, Message: "object not found"}
	case stderrors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Code: CodeInternal, Message: "internal server error"}
	}
}

func WriteError(w http.ResponseWriter, err error) {
	status, body := FromError(err)
	Write(w, status, body)
}

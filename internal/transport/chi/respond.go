package chi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// ErrorCode is a machine-readable error discriminator.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeCourseNotFound   ErrorCode = "course_not_found"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeQuotaExceeded    ErrorCode = "quota_exceeded"
	CodeUpstreamError    ErrorCode = "upstream_error"
	CodeForbidden        ErrorCode = "forbidden"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrCourseNotFound,
		domain.ErrNotFound,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler surfaces the full validation message; it describes the
// caller's input, not internals.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

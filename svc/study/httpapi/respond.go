package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/svc/study"
)

// Envelope is the body of every response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeInvalidInput       = "invalid_input"
	CodeUnauthenticated    = "unauthenticated"
	CodeQuotaExceeded      = "quota_exceeded"
	CodeNotFound           = "not_found"
	CodeVerificationFailed = "verification_failed"
	CodeGenerationFailed   = "generation_failed"
	CodeUnavailable        = "unavailable"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// classify maps a use case error to a status and a client safe detail.
func classify(err error) (int, *ErrorDetail) {
	var exceeded *quota.ExceededError
	switch {
	case errors.As(err, &exceeded):
		return http.StatusBadRequest, &ErrorDetail{Code: CodeQuotaExceeded, Message: exceeded.Detail}
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, &ErrorDetail{Code: CodeUnauthenticated, Message: "Authentication required"}
	case errors.Is(err, study.ErrInvalidInput), errors.Is(err, playbilling.ErrInvalidInput), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, &ErrorDetail{Code: CodeInvalidInput, Message: invalidMessage(err)}
	case errors.Is(err, study.ErrUserNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: CodeNotFound, Message: "User not found"}
	case errors.Is(err, study.ErrSubjectNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: CodeNotFound, Message: "Subject not found"}
	case errors.Is(err, entitlement.ErrNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: CodeNotFound, Message: "Subscription not found"}
	case errors.Is(err, playbilling.ErrVerificationFailed):
		return http.StatusBadGateway, &ErrorDetail{Code: CodeVerificationFailed, Message: "Unable to verify the purchase with Google Play"}
	case errors.Is(err, study.ErrGenerationFailed):
		return http.StatusBadGateway, &ErrorDetail{Code: CodeGenerationFailed, Message: "Flashcard generation failed"}
	case errors.Is(err, study.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable, &ErrorDetail{Code: CodeUnavailable, Message: "Flashcard generation is not available"}
	default:
		return http.StatusInternalServerError, &ErrorDetail{Code: CodeInternal, Message: "Internal server error"}
	}
}

// invalidMessage keeps the field reasons of errors.Join(sentinel, reasons...).
func invalidMessage(err error) string {
	if errors.Is(err, errMalformedBody) {
		return "Malformed JSON body"
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 1 {
			reasons := make([]string, 0, len(errs)-1)
			for _, e := range errs[1:] {
				reasons = append(reasons, e.Error())
			}
			return strings.Join(reasons, "; ")
		}
	}
	return "Invalid request"
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", slog.Int("status", status), logger.Error(err))
	} else {
		h.log.DebugContext(r.Context(), "request rejected", slog.Int("status", status), logger.Error(err))
	}
	writeJSON(w, status, Envelope{Error: detail})
}

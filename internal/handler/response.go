package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "travel not found with id abc123"}
//
// Validation errors also name the offending field:
//   {"error": "validation_error", "message": "title is required", "field": "title"}
//
// Outside production, unexpected failures carry the raw error text in
// "details" so a developer can see what broke without reading server logs.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`             // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`           // Human-readable description
	Field   string `json:"field,omitempty"`   // Request field that failed validation
	Details string `json:"details,omitempty"` // Diagnostic text, never sent in production
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE the body is written; once
// Encode starts writing, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// responder turns errors into HTTP responses. Every handler embeds one.
type responder struct {
	logger        *slog.Logger
	exposeDetails bool
}

func newResponder(logger *slog.Logger, exposeDetails bool) responder {
	return responder{logger: logger, exposeDetails: exposeDetails}
}

// statusFor maps a domain error to its HTTP status and error code.
//
// errors.Is walks the whole chain, so a service error like
//
//	fmt.Errorf("service/travel: updating travel %s: %w", id, apperror.NotFound(...))
//
// still maps to 404.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps err to a status code and sends the standard error body.
//
// The service layer never knows about HTTP status codes; this is the one
// place domain errors become HTTP.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	resp := ErrorResponse{Error: code}

	var appErr *apperror.AppError
	switch {
	case status == http.StatusInternalServerError:
		// NEVER expose internal error text in production: it may contain
		// SQL, file paths or other internals.
		resp.Message = "An internal error occurred"
		if rs.exposeDetails {
			resp.Details = err.Error()
		}
		rs.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	case errors.As(err, &appErr):
		resp.Message = appErr.Message
		resp.Field = appErr.Field
		if rs.exposeDetails {
			resp.Details = appErr.Detail
		}
	default:
		resp.Message = err.Error()
	}

	writeJSON(w, status, resp)
}

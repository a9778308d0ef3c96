package web

// errors.go provides unified error responses for the lookup API.
//
// The error flow:
//  1. Handler receives an error from core.Service
//  2. Calls respondError(w, r, err)
//  3. The status is derived from the error class (404, 400, 429, 503, 500)
//  4. Technical error + context is logged with the request id
//  5. A JSON ErrorResponse with the user message is written

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/tarif/internal/core"
	"github.com/JonMunkholm/tarif/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Detail carries the {"detail": ...} field the dashboard client reads.
type ErrorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapErrorWithDetail(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"status", status,
		"code", userMsg.Code,
		"error", err.Error(),
	)

	detail := userMsg.Message
	if core.IsClientError(err) {
		detail = err.Error()
	}
	writeJSON(w, r, status, ErrorResponse{
		Detail:  detail,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// respondRateLimited is the rate limiter's rejection handler.
func respondRateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, core.ErrRateLimited)
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

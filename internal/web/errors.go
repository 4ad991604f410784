package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusFor(err))
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request and run IDs
//  5. User message is rendered as JSON, or as an HTML fragment for HTMX

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/logging"
	"github.com/JonMunkholm/marketshare/internal/sheet"
	"github.com/JonMunkholm/marketshare/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errNoFile     = errors.New("no file provided")
	errFileTooBig = errors.New("file too large")
	errWriteBack  = errors.New("history write-back failed")
)

// respondError logs the technical error and writes the user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if statusCode >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		_ = templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor picks the HTTP status for a handler error.
func statusFor(err error) int {
	var (
		structure  *core.StructureError
		validation *core.ValidationError
		maxBytes   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errFileTooBig), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sheet.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, sheet.ErrSheetNotFound):
		return http.StatusBadRequest
	case errors.As(err, &structure), errors.As(err, &validation),
		errors.Is(err, sheet.ErrUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

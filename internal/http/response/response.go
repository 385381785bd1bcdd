// Package response defines the versioned JSON envelope every API response
// is wrapped in, plus writers for the few paths that answer outside huma
// (rate limiting, raw middleware).
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

// Version is the wire version stamped into every envelope. Clients parse
// the "v" field before anything else; bump only with a matching client
// release.
const Version = 1

// Envelope is the JSON body shared by huma-transformed responses and the
// raw handlers that bypass huma. Success bodies carry Data; failures carry
// either a bare Error string or a Code/Message/Details triple.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK builds a success envelope around data.
func OK(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Err builds a failure envelope with a plain error string.
func Err(message string) Envelope {
	return Envelope{V: Version, Success: false, Error: message}
}

// Write sends an envelope with the given status.
func Write(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, env); err != nil {
		if logger != nil {
			logger.Error("Failed to encode response envelope", "error", err)
		}
	}
}

// JSON writes data under the envelope, deriving Success from the status.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	Write(w, status, Envelope{V: Version, Success: status < 400, Data: data}, logger)
}

// Error writes a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	Write(w, status, Err(message), logger)
}

// TooManyRequests answers a rate-limited request (429).
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// HandleError maps a domain error onto the wire: known codes keep their
// code, message, and details; anything else becomes a bare 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		env := Envelope{
			V:       Version,
			Success: false,
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
		Write(w, domainErr.HTTPStatus(), env, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, http.StatusInternalServerError, "internal server error", logger)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/readium/readium/internal/apperr"
)

// envelope is the uniform response shape. Success responses carry data,
// failures carry errors.
type envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError maps the error taxonomy to a status and a client-safe message.
// Unclassified errors are logged server-side and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusCode(err)
	message := apperr.Message(err)

	if apperr.KindOf(err) == apperr.KindInternal || apperr.KindOf(err) == apperr.KindDependency {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     []string{message},
	})
}

// decodeJSON parses a request body into dst, limiting the body size to keep
// oversized payloads out of memory.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

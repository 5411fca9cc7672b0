package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/generate"
	"github.com/joestump/splashgen/internal/prompt"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// maxErrorMessage bounds messages that embed text from upstream services.
const maxErrorMessage = 300

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeGenerateError maps a dispatcher error to a status code. Only caller
// mistakes are described in detail; internal failures get a generic message.
func writeGenerateError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, generate.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	case errors.Is(err, generate.ErrUpstreamFetch):
		writeError(w, http.StatusBadRequest, shorten(err.Error()), "UPSTREAM_FETCH_ERROR")
	case errors.Is(err, prompt.ErrTemplateNotFound), errors.Is(err, prompt.ErrTemplateFill):
		log.Error("template configuration error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "template configuration error", "TEMPLATE_ERROR")
	default:
		log.Error("generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "generation failed, please retry", "GENERATION_ERROR")
	}
}

func writePersistenceError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "storage error, please retry", "PERSISTENCE_ERROR")
}

// shorten cuts s to at most maxErrorMessage bytes without splitting a rune.
func shorten(s string) string {
	if len(s) <= maxErrorMessage {
		return s
	}
	cut := maxErrorMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

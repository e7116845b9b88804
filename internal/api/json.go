package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/flatrest/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the apperr taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody(ve.Detail))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(textOr(err, "not found")))
	case errors.Is(err, apperr.ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody(textOr(err, "bad request")))
	case errors.Is(err, apperr.ErrReadOnly):
		writeJSON(w, http.StatusMethodNotAllowed, errorBody(textOr(err, "read only")))
	case errors.Is(err, apperr.ErrInternal):
		writeJSON(w, http.StatusInternalServerError, errorBody(textOr(err, "internal error")))
	default:
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// textOr returns the client-facing text carried by err, or fallback.
func textOr(err error, fallback string) string {
	var msg *apperr.Message
	if errors.As(err, &msg) {
		return msg.Text
	}
	return fallback
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/vibenotes/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the apperr taxonomy onto HTTP statuses. op names the
// failed operation in logs.
func writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(apperr.UserMessage(err, "not found")))
	case errors.Is(err, apperr.ErrInvariant):
		writeJSON(w, http.StatusConflict, errorBody(apperr.UserMessage(err, "conflict")))
	case errors.Is(err, apperr.ErrRejected):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(apperr.UserMessage(err, "rejected")))
	case errors.Is(err, apperr.ErrExternal):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(apperr.UserMessage(err, "upstream failure")))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

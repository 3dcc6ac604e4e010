// Package rest exposes the CRUD surface of the application over HTTP.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"huddle/errors"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := errors.MapToStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		writeJSON(w, status, errorBody{Message: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Message: err.Error()})
}

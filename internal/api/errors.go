package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kalambet/giftgenius/internal/gateway"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/session"
	"github.com/kalambet/giftgenius/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

// httpError writes the failure envelope with a formatted details field.
func httpError(w http.ResponseWriter, code int, message, format string, args ...any) {
	writeJSON(w, code, gateway.ErrorBody{Error: message, Details: fmt.Sprintf(format, args...)})
}

// writeError maps err to a status and envelope. Session and storage
// sentinels are handled here; everything else goes through gateway.Describe.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, gateway.ErrorBody{Error: "Introuvable", Details: err.Error()})
		return
	case errors.Is(err, session.ErrBusy):
		writeJSON(w, http.StatusConflict, gateway.ErrorBody{
			Error:   "Génération déjà en cours",
			Details: err.Error(),
			Hint:    "Attendez la fin de la génération précédente.",
		})
		return
	}

	status, body := gateway.Describe(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, models.ErrUnknownModel) {
		slog.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

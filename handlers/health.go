package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"counseling-records/apperr"
)

type HealthHandler struct {
	db        Pinger
	improver  TextImprover
	configErr error
}

// NewHealthHandler reports on db and improver. Either may be nil; a non-nil
// configErr marks the service degraded.
func NewHealthHandler(db Pinger, improver TextImprover, configErr error) *HealthHandler {
	return &HealthHandler{db: db, improver: improver, configErr: configErr}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := http.StatusOK
	response := map[string]interface{}{
		"status":           "ok",
		"service":          "counseling-records",
		"database":         "ok",
		"text_improvement": h.improver != nil && h.improver.Enabled(),
		"timestamp":        time.Now().Format(time.RFC3339),
	}

	switch {
	case h.configErr != nil:
		status = http.StatusServiceUnavailable
		response["status"] = "degraded"
		response["database"] = "not configured"
		response["error"] = apperr.UserMessage(h.configErr)
	case h.db == nil:
		response["database"] = "not configured"
	default:
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			response["status"] = "degraded"
			response["database"] = "unavailable"
		}
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

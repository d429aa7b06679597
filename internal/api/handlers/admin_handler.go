package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventReader reads the operational event log.
type EventReader interface {
	Recent(ctx context.Context, limit int) ([]*entities.EventLogEntry, error)
}

// AdminHandler exposes the event viewer.
type AdminHandler struct {
	events  EventReader
	enabled bool
	token   string
}

// NewAdminHandler creates the admin handler. When enabled is false the
// viewer is reachable only with ?admin=1 and a matching X-Admin-Token; with
// no token configured it is not reachable at all.
func NewAdminHandler(events EventReader, enabled bool, token string) *AdminHandler {
	return &AdminHandler{events: events, enabled: enabled, token: token}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.enabled {
		return true
	}
	if h.token == "" || r.URL.Query().Get("admin") != "1" {
		return false
	}
	given := r.Header.Get("X-Admin-Token")
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) == 1
}

// ListEvents handles GET /api/admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondWithError(w, http.StatusNotFound, "not found")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("admin event read failed")
		respondWithError(w, http.StatusBadGateway, "failed to read events")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

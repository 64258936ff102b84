package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/http/middleware"
)

// EventStreamer upgrades a request into an event subscription.
type EventStreamer interface {
	Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, householdID int64) error
}

// EventsHandler serves GET /api/events. Household callers receive their own events; admins
// receive every household unless household_id narrows it.
type EventsHandler struct {
	streamer EventStreamer
	logger   *zap.Logger
}

// NewEventsHandler returns handler.
func NewEventsHandler(streamer EventStreamer, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{streamer: streamer, logger: logger}
}

// Subscribe handles the websocket upgrade.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	householdID := principal.HouseholdID
	if raw := r.URL.Query().Get("household_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid household_id")
			return
		}
		if !principal.CanAccess(id) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		householdID = id
	} else if principal.IsAdmin() {
		householdID = 0
	}

	if err := h.streamer.Serve(r.Context(), w, r, householdID); err != nil {
		// The upgrader has already written the failure response.
		h.logger.Warn("event subscription failed", zap.Error(err))
	}
}

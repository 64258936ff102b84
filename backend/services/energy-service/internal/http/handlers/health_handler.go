package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports dependency health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler responds to GET /health.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	}
}

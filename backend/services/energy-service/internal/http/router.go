package httpserver

import (
	"net/http"

	"ieoms/backend/services/energy-service/internal/http/handlers"
	"ieoms/backend/services/energy-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	UploadHandler          *handlers.UploadHandler
	EnergyHandlers         *handlers.EnergyHandlers
	RecommendationsHandler *handlers.RecommendationsHandler
	EventsHandler          *handlers.EventsHandler
	HealthHandler          http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}

	mux.Handle("/api/upload/{householdID}", method(http.MethodPost, authenticated(deps.UploadHandler.Upload)))

	mux.Handle("/api/energy/consumption/{householdID}", method(http.MethodGet, authenticated(deps.EnergyHandlers.Consumption)))
	mux.Handle("/api/energy/peak-hours/{householdID}", method(http.MethodGet, authenticated(deps.EnergyHandlers.PeakHours)))
	mux.Handle("/api/energy/cost-breakdown/{householdID}", method(http.MethodGet, authenticated(deps.EnergyHandlers.CostBreakdown)))
	mux.Handle("/api/forecasts/{householdID}", method(http.MethodGet, authenticated(deps.EnergyHandlers.Forecasts)))

	mux.Handle("/api/recommendations/{householdID}", method(http.MethodGet, authenticated(deps.RecommendationsHandler.Get)))

	if deps.EventsHandler != nil {
		mux.Handle("/api/events", method(http.MethodGet, authenticated(deps.EventsHandler.Subscribe)))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

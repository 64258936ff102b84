package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/service"
)

// Recommender produces recommendations for a household.
type Recommender interface {
	Generate(ctx context.Context, householdID int64) (*service.RecommendationReport, error)
}

// RecommendationsHandler serves GET /api/recommendations/{householdID}.
type RecommendationsHandler struct {
	recommender Recommender
	logger      *zap.Logger
}

// NewRecommendationsHandler returns handler.
func NewRecommendationsHandler(recommender Recommender, logger *zap.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{recommender: recommender, logger: logger}
}

// Get handles the request.
func (h *RecommendationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	report, err := h.recommender.Generate(r.Context(), householdID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

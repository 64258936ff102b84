package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/models"
)

// Reporter serves the dashboard aggregates.
type Reporter interface {
	ConsumptionSeries(ctx context.Context, householdID int64, hours int) ([]models.HourlyUsage, error)
	PeakHours(ctx context.Context, householdID int64) (*models.PeakHours, error)
	CostBreakdown(ctx context.Context, householdID int64, days int) (*models.CostBreakdown, error)
	ForecastSummary(ctx context.Context, householdID int64, days int) (*models.ForecastSummary, error)
}

// EnergyHandlers exposes consumption, peak, cost and forecast reports.
type EnergyHandlers struct {
	reports Reporter
	logger  *zap.Logger
}

// NewEnergyHandlers returns handler.
func NewEnergyHandlers(reports Reporter, logger *zap.Logger) *EnergyHandlers {
	return &EnergyHandlers{reports: reports, logger: logger}
}

// Consumption handles GET /api/energy/consumption/{householdID}?hours=N.
func (h *EnergyHandlers) Consumption(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	hours, ok := intQuery(w, r, "hours")
	if !ok {
		return
	}
	series, err := h.reports.ConsumptionSeries(r.Context(), householdID, hours)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// PeakHours handles GET /api/energy/peak-hours/{householdID}.
func (h *EnergyHandlers) PeakHours(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	peaks, err := h.reports.PeakHours(r.Context(), householdID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, peaks)
}

// CostBreakdown handles GET /api/energy/cost-breakdown/{householdID}?days=N.
func (h *EnergyHandlers) CostBreakdown(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	days, ok := intQuery(w, r, "days")
	if !ok {
		return
	}
	report, err := h.reports.CostBreakdown(r.Context(), householdID, days)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Forecasts handles GET /api/forecasts/{householdID}?days=N.
func (h *EnergyHandlers) Forecasts(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	days, ok := intQuery(w, r, "days")
	if !ok {
		return
	}
	summary, err := h.reports.ForecastSummary(r.Context(), householdID, days)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

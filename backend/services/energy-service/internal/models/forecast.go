package models

import "time"

// ForecastApplianceTotal is the aggregate category used for synthesized forecasts.
const ForecastApplianceTotal = "Total"

// ForecastRecord is one predicted hourly value.
type ForecastRecord struct {
	ID                 int64     `db:"id" json:"id,omitempty"`
	ForecastTimestamp  time.Time `db:"forecast_timestamp" json:"forecast_timestamp"`
	HouseholdID        int64     `db:"household_id" json:"household_id"`
	ApplianceType      string    `db:"appliance_type" json:"appliance_type"`
	PredictedEnergyKWh float64   `db:"predicted_energy_kwh" json:"predicted_energy_kwh"`
	ModelVersion       string    `db:"model_version" json:"model_version"`
	ConfidenceScore    float64   `db:"confidence_score" json:"confidence_score"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

// HourlyUsage is one (hour bucket, appliance, label) group.
type HourlyUsage struct {
	Hour          time.Time  `json:"hour"`
	ApplianceType string     `json:"appliance_type"`
	UsageLabel    UsageLabel `json:"usage_label"`
	AvgEnergyKWh  float64    `json:"avg_energy_kwh"`
	AvgCostUSD    float64    `json:"avg_cost_usd"`
}

// PeakHistogramRow is one (label, hour of day) group.
type PeakHistogramRow struct {
	UsageLabel   UsageLabel
	Hour         int
	Frequency    int64
	AvgEnergyKWh float64
}

// ApplianceCostRow is one appliance group of a cost breakdown.
type ApplianceCostRow struct {
	ApplianceType string
	TotalKWh      float64
	TotalCost     float64
	AvgKWh        float64
	UsageCount    int64
}

// ApplianceLabelUsage summarizes an appliance/label pair for recommendation prompts.
type ApplianceLabelUsage struct {
	ApplianceType string
	UsageLabel    UsageLabel
	AvgKWh        float64
	TotalCost     float64
}

// HourAverage is an hour of day with its average consumption.
type HourAverage struct {
	Hour   int
	AvgKWh float64
}

// HourFrequency is one hour of day inside a peak bucket.
type HourFrequency struct {
	Hour         int     `json:"hour"`
	Frequency    int64   `json:"frequency"`
	AvgEnergyKWh float64 `json:"avg_energy_kwh"`
}

// PeakBucket groups the hours where a label occurred.
type PeakBucket struct {
	Hours         []HourFrequency `json:"hours"`
	TypicalWindow string          `json:"typical_window"`
	AvgEnergyKWh  float64         `json:"avg_energy_kwh"`
}

// PeakHours is the hour-of-day distribution per usage label.
type PeakHours struct {
	HouseholdID int64      `json:"household_id"`
	Peak        PeakBucket `json:"peak"`
	Normal      PeakBucket `json:"normal"`
	OffPeak     PeakBucket `json:"off_peak"`
}

// ApplianceCost is one appliance line of a cost breakdown.
type ApplianceCost struct {
	ApplianceType string  `json:"appliance_type"`
	TotalKWh      float64 `json:"total_kwh"`
	TotalCost     float64 `json:"total_cost"`
	AvgKWh        float64 `json:"avg_kwh"`
	UsageCount    int64   `json:"usage_count"`
	Percentage    float64 `json:"percentage"`
}

// CostBreakdown is the per-appliance cost report for a trailing window.
type CostBreakdown struct {
	HouseholdID int64           `json:"household_id"`
	PeriodDays  int             `json:"period_days"`
	TotalCost   float64         `json:"total_cost"`
	TotalKWh    float64         `json:"total_kwh"`
	CostPerKWh  float64         `json:"cost_per_kwh"`
	Appliances  []ApplianceCost `json:"appliances"`
}

// DailyForecast totals one forecast day.
type DailyForecast struct {
	Date         string  `json:"date"`
	PredictedKWh float64 `json:"predicted_kwh"`
	Hours        int     `json:"hours"`
}

// AccuracyMetrics is the fixed quality metadata reported with forecasts.
type AccuracyMetrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// ForecastSummary aggregates the stored forecast set.
type ForecastSummary struct {
	HouseholdID       int64            `json:"household_id"`
	PeriodDays        int              `json:"period_days"`
	ModelVersion      string           `json:"model_version"`
	TotalPredictedKWh float64          `json:"total_predicted_kwh"`
	AvgConfidence     float64          `json:"avg_confidence"`
	Accuracy          AccuracyMetrics  `json:"accuracy"`
	Daily             []DailyForecast  `json:"daily"`
	Hourly            []ForecastRecord `json:"hourly"`
}

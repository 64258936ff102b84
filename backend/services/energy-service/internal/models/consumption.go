package models

import "time"

// UsageLabel is the usage tier derived from a single reading.
type UsageLabel string

// Usage tiers. The stored spelling of OffPeak keeps the hyphen used by existing data.
const (
	UsagePeak    UsageLabel = "Peak"
	UsageNormal  UsageLabel = "Normal"
	UsageOffPeak UsageLabel = "Off-Peak"
)

// UsageLabels lists every known label in reporting order.
var UsageLabels = []UsageLabel{UsagePeak, UsageNormal, UsageOffPeak}

// Valid reports whether l is one of the known labels.
func (l UsageLabel) Valid() bool {
	switch l {
	case UsagePeak, UsageNormal, UsageOffPeak:
		return true
	}
	return false
}

// ConsumptionRecord represents one observed reading.
type ConsumptionRecord struct {
	ID            int64      `db:"id" json:"id,omitempty"`
	Timestamp     time.Time  `db:"timestamp" json:"timestamp"`
	HouseholdID   int64      `db:"household_id" json:"household_id"`
	ApplianceType string     `db:"appliance_type" json:"appliance_type"`
	EnergyKWh     float64    `db:"energy_kwh" json:"energy_kwh"`
	CostUSD       float64    `db:"cost_usd" json:"cost_usd"`
	UsageLabel    UsageLabel `db:"usage_label" json:"usage_label"`
}

// ParsedRow is a validated upload row before classification.
type ParsedRow struct {
	Timestamp     time.Time
	ApplianceType string
	EnergyKWh     float64
	CostUSD       float64
}

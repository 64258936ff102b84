package service

import "ieoms/backend/services/energy-service/internal/models"

// UsageClassifier labels single readings. Thresholds are fixed for the lifetime of the
// classifier; stored labels are never recomputed.
type UsageClassifier struct {
	peak   float64
	normal float64
}

// NewUsageClassifier returns classifier for the configured thresholds.
func NewUsageClassifier(cfg PipelineConfig) *UsageClassifier {
	return &UsageClassifier{peak: cfg.PeakThreshold, normal: cfg.NormalThreshold}
}

// Classify maps kWh to a tier; each tier includes its lower bound.
func (c *UsageClassifier) Classify(energyKWh float64) models.UsageLabel {
	switch {
	case energyKWh >= c.peak:
		return models.UsagePeak
	case energyKWh >= c.normal:
		return models.UsageNormal
	default:
		return models.UsageOffPeak
	}
}

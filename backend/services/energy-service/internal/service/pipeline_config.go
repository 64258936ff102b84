package service

import (
	"errors"
	"fmt"
	"strings"
)

// ConcurrencyPolicy decides how overlapping ingestions for one household are handled.
type ConcurrencyPolicy string

const (
	// PolicyIsolation relies on the store's transaction isolation only.
	PolicyIsolation ConcurrencyPolicy = "isolation"
	// PolicyReject fails the second ingestion with ErrIngestionInProgress.
	PolicyReject ConcurrencyPolicy = "reject"
	// PolicySerialize makes the second ingestion wait for the first to finish.
	PolicySerialize ConcurrencyPolicy = "serialize"
)

// ParseConcurrencyPolicy accepts the policy names case-insensitively; empty means isolation.
func ParseConcurrencyPolicy(raw string) (ConcurrencyPolicy, error) {
	switch p := ConcurrencyPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyIsolation, nil
	case PolicyIsolation, PolicyReject, PolicySerialize:
		return p, nil
	default:
		return "", fmt.Errorf("unknown concurrency policy %q", raw)
	}
}

// PipelineConfig holds every tunable of the ingestion pipeline.
type PipelineConfig struct {
	PeakThreshold       float64
	NormalThreshold     float64
	ForecastHorizonDays int
	FallbackHourlyKWh   float64
	ModelVersionTag     string
	ConfidenceScore     float64
	JitterSeed          int64
	ConcurrencyPolicy   ConcurrencyPolicy
}

// DefaultPipelineConfig returns the production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PeakThreshold:       1.8,
		NormalThreshold:     1.2,
		ForecastHorizonDays: 7,
		FallbackHourlyKWh:   1.5,
		ModelVersionTag:     "xgboost_v1",
		ConfidenceScore:     0.95,
		ConcurrencyPolicy:   PolicyIsolation,
	}
}

// Validate checks ranges and threshold ordering.
func (c PipelineConfig) Validate() error {
	var errs []error
	if c.NormalThreshold < 0 || c.PeakThreshold < 0 {
		errs = append(errs, errors.New("thresholds must not be negative"))
	}
	if c.NormalThreshold >= c.PeakThreshold {
		errs = append(errs, fmt.Errorf("normal threshold %.3f must be below peak threshold %.3f", c.NormalThreshold, c.PeakThreshold))
	}
	if c.ForecastHorizonDays <= 0 {
		errs = append(errs, errors.New("forecast horizon must be at least one day"))
	}
	if c.FallbackHourlyKWh < 0 {
		errs = append(errs, errors.New("fallback hourly kWh must not be negative"))
	}
	if strings.TrimSpace(c.ModelVersionTag) == "" {
		errs = append(errs, errors.New("model version tag required"))
	}
	if c.ConfidenceScore < 0 || c.ConfidenceScore > 1 {
		errs = append(errs, errors.New("confidence score must be within [0,1]"))
	}
	if _, err := ParseConcurrencyPolicy(string(c.ConcurrencyPolicy)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("pipeline config: %w", errors.Join(errs...))
	}
	return nil
}

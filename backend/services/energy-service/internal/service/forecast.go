package service

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ieoms/backend/services/energy-service/internal/models"
)

const (
	jitterBase  = 0.95
	jitterRange = 0.10
)

// JitterSource yields values in [0,1).
type JitterSource interface {
	Float64() float64
}

// NewJitterSource returns a PCG generator. A zero seed draws one from the clock.
func NewJitterSource(seed int64) JitterSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// ForecastSynthesizer projects hourly averages over the forecast horizon. The result is a
// heuristic: ConfidenceScore is a fixed tag, not a calibrated probability.
type ForecastSynthesizer struct {
	horizonDays  int
	fallback     float64
	modelVersion string
	confidence   float64

	mu     sync.Mutex
	jitter JitterSource
	now    func() time.Time
}

// NewForecastSynthesizer returns synthesizer. A nil jitter source is seeded from cfg.JitterSeed.
func NewForecastSynthesizer(cfg PipelineConfig, jitter JitterSource) *ForecastSynthesizer {
	if jitter == nil {
		jitter = NewJitterSource(cfg.JitterSeed)
	}
	return &ForecastSynthesizer{
		horizonDays:  cfg.ForecastHorizonDays,
		fallback:     cfg.FallbackHourlyKWh,
		modelVersion: cfg.ModelVersionTag,
		confidence:   cfg.ConfidenceScore,
		jitter:       jitter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// HorizonDays returns the number of forecast days per set.
func (s *ForecastSynthesizer) HorizonDays() int {
	return s.horizonDays
}

// ModelVersion returns the tag written on every row.
func (s *ForecastSynthesizer) ModelVersion() string {
	return s.modelVersion
}

// AnchorDate returns the first forecast day for the latest observed timestamp.
func AnchorDate(latest time.Time) time.Time {
	latest = latest.UTC()
	return time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// Synthesize returns horizonDays × 24 hourly rows starting the day after latest. Hours
// missing from hourlyAverages use the fallback value.
func (s *ForecastSynthesizer) Synthesize(householdID int64, hourlyAverages map[int]float64, latest time.Time) []models.ForecastRecord {
	first := AnchorDate(latest)
	createdAt := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.ForecastRecord, 0, s.horizonDays*24)
	for day := 0; day < s.horizonDays; day++ {
		date := first.AddDate(0, 0, day)
		for hour := 0; hour < 24; hour++ {
			base, ok := hourlyAverages[hour]
			if !ok {
				base = s.fallback
			}
			rows = append(rows, models.ForecastRecord{
				ForecastTimestamp:  date.Add(time.Duration(hour) * time.Hour),
				HouseholdID:        householdID,
				ApplianceType:      models.ForecastApplianceTotal,
				PredictedEnergyKWh: s.predict(base),
				ModelVersion:       s.modelVersion,
				ConfidenceScore:    s.confidence,
				CreatedAt:          createdAt,
			})
		}
	}
	return rows
}

func (s *ForecastSynthesizer) predict(base float64) float64 {
	if math.IsNaN(base) || math.IsInf(base, 0) {
		return 0
	}
	u := s.jitter.Float64()
	if u < 0 || u >= 1 {
		u = 0
	}
	factor := decimal.NewFromFloat(jitterBase).Add(decimal.NewFromFloat(u).Mul(decimal.NewFromFloat(jitterRange)))
	value := decimal.NewFromFloat(base).Mul(factor).Truncate(4).InexactFloat64()
	if value < 0 {
		return 0
	}
	return value
}

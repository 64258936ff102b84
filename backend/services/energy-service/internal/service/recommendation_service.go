package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"ieoms/backend/services/energy-service/internal/models"
)

const (
	recommendationWindow = 7 * 24 * time.Hour
	recommendationPeriod = "last 7 days"
	peakHoursInSummary   = 5
)

// RecommendationGenerator turns a prompt into free text.
type RecommendationGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecommendationStore is the store side of recommendations.
type RecommendationStore interface {
	ApplianceLabelUsage(ctx context.Context, householdID int64, window time.Duration) ([]models.ApplianceLabelUsage, error)
	TopPeakHours(ctx context.Context, householdID int64, window time.Duration, limit int) ([]models.HourAverage, error)
	InsertRecommendations(ctx context.Context, recs []models.Recommendation) error
}

// RecommendationCache stores generated recommendations keyed by summary digest.
type RecommendationCache interface {
	Get(ctx context.Context, householdID int64, digest string) ([]models.Recommendation, bool, error)
	Set(ctx context.Context, householdID int64, digest string, recs []models.Recommendation) error
}

// ConsumptionSummary is one appliance/label line of the prompt context.
type ConsumptionSummary struct {
	Appliance  string `json:"appliance"`
	UsageLabel string `json:"usageLabel"`
	AvgKWh     string `json:"avgKwh"`
	TotalCost  string `json:"totalCost"`
}

// PeakHourSummary is one peak hour of the prompt context.
type PeakHourSummary struct {
	Hour   int    `json:"hour"`
	AvgKWh string `json:"avgKwh"`
}

// EnergySummary is the context sent to the generator and returned with its suggestions.
type EnergySummary struct {
	HouseholdID int64                `json:"householdId"`
	Consumption []ConsumptionSummary `json:"consumption"`
	PeakHours   []PeakHourSummary    `json:"peakHours"`
	Period      string               `json:"period"`
}

// RecommendationReport is returned by Generate.
type RecommendationReport struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	EnergyContext   EnergySummary           `json:"energy_context"`
	Degraded        bool                    `json:"degraded"`
	Cached          bool                    `json:"cached"`
}

// RecommendationService builds prompts from recent usage and mirrors the suggestions.
type RecommendationService struct {
	store     RecommendationStore
	generator RecommendationGenerator
	cache     RecommendationCache
	limit     int
	logger    *zap.Logger
}

// NewRecommendationService builds service. cache may be nil.
func NewRecommendationService(store RecommendationStore, generator RecommendationGenerator, cache RecommendationCache, limit int, logger *zap.Logger) *RecommendationService {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	return &RecommendationService{
		store:     store,
		generator: generator,
		cache:     cache,
		limit:     limit,
		logger:    logger,
	}
}

// Generate returns recommendations for the household's last seven days. Generator
// failures yield an empty list; store failures are returned.
func (s *RecommendationService) Generate(ctx context.Context, householdID int64) (*RecommendationReport, error) {
	if err := checkHousehold(householdID); err != nil {
		return nil, err
	}
	summary, err := s.Summarize(ctx, householdID)
	if err != nil {
		return nil, err
	}
	report := &RecommendationReport{
		Recommendations: []models.Recommendation{},
		EnergyContext:   *summary,
	}
	logger := s.logger.With(zap.Int64("household_id", householdID))

	digest, err := SummaryDigest(summary)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		recs, ok, err := s.cache.Get(ctx, householdID, digest)
		if err != nil {
			logger.Warn("recommendation cache read failed", zap.Error(err))
		} else if ok {
			report.Recommendations = recs
			report.Cached = true
			return report, nil
		}
	}

	if s.generator == nil {
		logger.Warn("recommendation generator not configured")
		return report, nil
	}
	text, err := s.generator.Generate(ctx, BuildPrompt(summary))
	if err != nil {
		logger.Warn("recommendation generator failed", zap.Error(err))
		return report, nil
	}

	result := ParseRecommendations(text, s.limit)
	report.Degraded = result.Degraded()
	if report.Degraded {
		logger.Info("recommendation response had no JSON array, using line parser")
	}

	recs := make([]models.Recommendation, 0, len(result.Suggestions()))
	for _, sug := range result.Suggestions() {
		recs = append(recs, models.Recommendation{
			HouseholdID:         householdID,
			Text:                sug.Action,
			PotentialSavingsKWh: float64(sug.SavingsKWh),
			PotentialSavingsUSD: float64(sug.SavingsUSD),
			Priority:            models.NormalizePriority(sug.Priority),
			Steps:               sug.Steps,
		})
	}
	if len(recs) == 0 {
		return report, nil
	}
	if err := s.store.InsertRecommendations(ctx, recs); err != nil {
		return nil, &StoreError{Op: "insert recommendations", Err: err}
	}
	report.Recommendations = recs

	if s.cache != nil {
		if err := s.cache.Set(ctx, householdID, digest, recs); err != nil {
			logger.Warn("recommendation cache write failed", zap.Error(err))
		}
	}
	logger.Info("recommendations stored", zap.Int("count", len(recs)), zap.Bool("degraded", report.Degraded))
	return report, nil
}

// Summarize reads the seven-day usage context of a household.
func (s *RecommendationService) Summarize(ctx context.Context, householdID int64) (*EnergySummary, error) {
	usage, err := s.store.ApplianceLabelUsage(ctx, householdID, recommendationWindow)
	if err != nil {
		return nil, &StoreError{Op: "appliance usage", Err: err}
	}
	peaks, err := s.store.TopPeakHours(ctx, householdID, recommendationWindow, peakHoursInSummary)
	if err != nil {
		return nil, &StoreError{Op: "top peak hours", Err: err}
	}

	summary := &EnergySummary{
		HouseholdID: householdID,
		Consumption: make([]ConsumptionSummary, 0, len(usage)),
		PeakHours:   make([]PeakHourSummary, 0, len(peaks)),
		Period:      recommendationPeriod,
	}
	for _, u := range usage {
		summary.Consumption = append(summary.Consumption, ConsumptionSummary{
			Appliance:  u.ApplianceType,
			UsageLabel: string(u.UsageLabel),
			AvgKWh:     decimal.NewFromFloat(u.AvgKWh).StringFixed(2),
			TotalCost:  decimal.NewFromFloat(u.TotalCost).StringFixed(2),
		})
	}
	for _, p := range peaks {
		summary.PeakHours = append(summary.PeakHours, PeakHourSummary{
			Hour:   p.Hour,
			AvgKWh: decimal.NewFromFloat(p.AvgKWh).StringFixed(2),
		})
	}
	return summary, nil
}

// SummaryDigest returns a stable hex digest of the summary.
func SummaryDigest(summary *EnergySummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

// BuildPrompt renders the generator prompt for a summary.
func BuildPrompt(summary *EnergySummary) string {
	data, _ := json.MarshalIndent(summary, "", "  ")
	return fmt.Sprintf(`Based on this smart home energy consumption data:

%s

Please provide 5 specific, actionable energy-saving recommendations. For each recommendation:
1. Describe the action clearly
2. Estimate potential savings in kWh/month
3. Provide implementation steps

Format as JSON array with structure: [{"action": "...", "savings_kwh": number, "savings_usd": number, "priority": "high/medium/low", "steps": ["step1", "step2"]}]`, data)
}

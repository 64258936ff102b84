package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/events"
	"ieoms/backend/services/energy-service/internal/models"
	"ieoms/backend/services/energy-service/internal/upload"
)

const dateLayout = "2006-01-02"

// DateRange is the min and max timestamp of a batch.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IngestionResult summarizes a committed ingestion.
type IngestionResult struct {
	BatchID            string    `json:"batch_id"`
	HouseholdID        int64     `json:"household_id"`
	RowsInserted       int64     `json:"rows_inserted"`
	ForecastsGenerated int64     `json:"forecasts_generated"`
	DateRange          DateRange `json:"date_range"`
	NextForecastDate   string    `json:"next_forecast_date"`
	ModelVersion       string    `json:"model_version"`
}

// IngestionService validates, labels and stores readings, then regenerates forecasts.
type IngestionService struct {
	tx          Transactor
	parser      *upload.Parser
	stager      *upload.Stager
	classifier  *UsageClassifier
	synthesizer *ForecastSynthesizer
	policy      ConcurrencyPolicy
	notifier    events.Notifier
	logger      *zap.Logger
}

// NewIngestionService builds service. notifier may be nil.
func NewIngestionService(
	tx Transactor,
	parser *upload.Parser,
	stager *upload.Stager,
	cfg PipelineConfig,
	jitter JitterSource,
	notifier events.Notifier,
	logger *zap.Logger,
) (*IngestionService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := ParseConcurrencyPolicy(string(cfg.ConcurrencyPolicy))
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &IngestionService{
		tx:          tx,
		parser:      parser,
		stager:      stager,
		classifier:  NewUsageClassifier(cfg),
		synthesizer: NewForecastSynthesizer(cfg, jitter),
		policy:      policy,
		notifier:    notifier,
		logger:      logger,
	}, nil
}

// IngestUpload stages an uploaded CSV, parses it and ingests the rows. The staged file is
// removed whatever the outcome.
func (s *IngestionService) IngestUpload(ctx context.Context, householdID int64, r io.Reader) (*IngestionResult, error) {
	if householdID <= 0 {
		return nil, ErrInvalidHousehold
	}
	var result *IngestionResult
	err := s.stager.WithStaged(r, func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open staged upload: %w", err)
		}
		defer f.Close()

		raw, err := upload.ReadCSV(f)
		if err != nil {
			return err
		}
		result, err = s.IngestRaw(ctx, householdID, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IngestRaw parses string-keyed rows and ingests them.
func (s *IngestionService) IngestRaw(ctx context.Context, householdID int64, raw []map[string]string) (*IngestionResult, error) {
	if householdID <= 0 {
		return nil, ErrInvalidHousehold
	}
	rows, err := s.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, householdID, rows)
}

// Ingest labels rows and, in one transaction, inserts them and replaces the household's
// forecast set. Nothing is written when any step fails.
func (s *IngestionService) Ingest(ctx context.Context, householdID int64, rows []models.ParsedRow) (*IngestionResult, error) {
	if householdID <= 0 {
		return nil, ErrInvalidHousehold
	}
	if len(rows) == 0 {
		return nil, upload.ErrEmptyInput
	}
	if err := checkReadings(rows); err != nil {
		return nil, err
	}

	records, batchRange := s.label(householdID, rows)
	result := &IngestionResult{
		BatchID:      uuid.NewString(),
		HouseholdID:  householdID,
		DateRange:    batchRange,
		ModelVersion: s.synthesizer.ModelVersion(),
	}
	logger := s.logger.With(zap.String("batch_id", result.BatchID), zap.Int64("household_id", householdID))
	started := time.Now()

	err := s.tx.RunInTx(ctx, func(tx IngestionTx) error {
		if err := s.acquire(ctx, tx, householdID); err != nil {
			return err
		}

		inserted, err := tx.InsertConsumptionBatch(ctx, records)
		if err != nil {
			return &StoreError{Op: "insert consumption", Err: err}
		}
		result.RowsInserted = inserted

		latest, ok, err := tx.MaxTimestamp(ctx, householdID)
		if err != nil {
			return &StoreError{Op: "latest timestamp", Err: err}
		}
		if !ok {
			return &StoreError{Op: "latest timestamp", Err: errors.New("no consumption visible after insert")}
		}

		averages, err := tx.HourlyAverages(ctx, householdID)
		if err != nil {
			return &StoreError{Op: "hourly averages", Err: err}
		}

		if _, err := tx.DeleteForecasts(ctx, householdID); err != nil {
			return &StoreError{Op: "delete forecasts", Err: err}
		}

		forecasts := s.synthesizer.Synthesize(householdID, averages, latest)
		written, err := tx.InsertForecastBatch(ctx, forecasts)
		if err != nil {
			return &StoreError{Op: "insert forecasts", Err: err}
		}
		result.ForecastsGenerated = written
		result.NextForecastDate = AnchorDate(latest).Format(dateLayout)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStore) && !errors.Is(err, ErrIngestionInProgress) {
			err = &StoreError{Op: "ingestion transaction", Err: err}
		}
		logger.Warn("ingestion rolled back", zap.Int("rows", len(records)), zap.Error(err))
		return nil, err
	}

	logger.Info("ingestion committed",
		zap.Int64("rows_inserted", result.RowsInserted),
		zap.Int64("forecasts_generated", result.ForecastsGenerated),
		zap.String("next_forecast_date", result.NextForecastDate),
		zap.Int("horizon_days", s.synthesizer.HorizonDays()),
		zap.Duration("elapsed", time.Since(started)),
	)
	s.publish(ctx, result, logger)
	return result, nil
}

// checkReadings guards callers that build rows without the upload parser.
func checkReadings(rows []models.ParsedRow) error {
	for i, row := range rows {
		if err := upload.CheckReading(row.EnergyKWh); err != nil {
			return &upload.RowParseError{Row: i + 1, Column: upload.ColumnEnergyKWh, Value: strconv.FormatFloat(row.EnergyKWh, 'g', -1, 64), Err: err}
		}
		if err := upload.CheckReading(row.CostUSD); err != nil {
			return &upload.RowParseError{Row: i + 1, Column: upload.ColumnCostUSD, Value: strconv.FormatFloat(row.CostUSD, 'g', -1, 64), Err: err}
		}
	}
	return nil
}

func (s *IngestionService) label(householdID int64, rows []models.ParsedRow) ([]models.ConsumptionRecord, DateRange) {
	records := make([]models.ConsumptionRecord, len(rows))
	var span DateRange
	for i, row := range rows {
		ts := row.Timestamp.UTC()
		records[i] = models.ConsumptionRecord{
			Timestamp:     ts,
			HouseholdID:   householdID,
			ApplianceType: row.ApplianceType,
			EnergyKWh:     row.EnergyKWh,
			CostUSD:       row.CostUSD,
			UsageLabel:    s.classifier.Classify(row.EnergyKWh),
		}
		if i == 0 || ts.Before(span.From) {
			span.From = ts
		}
		if i == 0 || ts.After(span.To) {
			span.To = ts
		}
	}
	return records, span
}

func (s *IngestionService) acquire(ctx context.Context, tx IngestionTx, householdID int64) error {
	switch s.policy {
	case PolicySerialize:
		if err := tx.LockHousehold(ctx, householdID); err != nil {
			return &StoreError{Op: "lock household", Err: err}
		}
	case PolicyReject:
		ok, err := tx.TryLockHousehold(ctx, householdID)
		if err != nil {
			return &StoreError{Op: "lock household", Err: err}
		}
		if !ok {
			return ErrIngestionInProgress
		}
	}
	return nil
}

func (s *IngestionService) publish(ctx context.Context, result *IngestionResult, logger *zap.Logger) {
	event := events.IngestionEvent{
		Type:               events.TypeIngestionCompleted,
		BatchID:            result.BatchID,
		HouseholdID:        result.HouseholdID,
		RowsInserted:       result.RowsInserted,
		ForecastsGenerated: result.ForecastsGenerated,
		From:               result.DateRange.From,
		To:                 result.DateRange.To,
		NextForecastDate:   result.NextForecastDate,
		ModelVersion:       result.ModelVersion,
		OccurredAt:         time.Now().UTC(),
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish ingestion event", zap.Error(err))
	}
}

package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/events"
	"ieoms/backend/services/energy-service/internal/models"
	"ieoms/backend/services/energy-service/internal/upload"
)

func newTestIngestion(t *testing.T, store *memStore, cfg PipelineConfig, notifier *captureNotifier) *IngestionService {
	t.Helper()
	var n events.Notifier
	if notifier != nil {
		n = notifier
	}
	svc, err := NewIngestionService(
		store,
		upload.NewParser(time.UTC),
		upload.NewStager(t.TempDir(), 1<<20),
		cfg,
		constJitter(0),
		n,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewIngestionService: %v", err)
	}
	return svc
}

func threeRows() []models.ParsedRow {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.ParsedRow{
		{Timestamp: day.Add(18 * time.Hour), ApplianceType: "Oven", EnergyKWh: 2.5, CostUSD: 0.30},
		{Timestamp: day.Add(19 * time.Hour), ApplianceType: "Heater", EnergyKWh: 1.5, CostUSD: 0.18},
		{Timestamp: day.Add(20 * time.Hour), ApplianceType: "Lights", EnergyKWh: 0.5, CostUSD: 0.06},
	}
}

func TestIngestLabelsRowsAndReplacesForecasts(t *testing.T) {
	store := &memStore{}
	notifier := &captureNotifier{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), notifier)

	result, err := svc.Ingest(context.Background(), 1, threeRows())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if result.RowsInserted != 3 || result.ForecastsGenerated != 168 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.NextForecastDate != "2024-01-02" {
		t.Fatalf("unexpected next forecast date %q", result.NextForecastDate)
	}
	if !result.DateRange.From.Equal(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)) ||
		!result.DateRange.To.Equal(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date range %+v", result.DateRange)
	}
	if result.BatchID == "" || result.ModelVersion != "xgboost_v1" {
		t.Fatalf("unexpected metadata %+v", result)
	}

	wantLabels := []models.UsageLabel{models.UsagePeak, models.UsageNormal, models.UsageOffPeak}
	for i, rec := range store.consumption {
		if rec.UsageLabel != wantLabels[i] {
			t.Fatalf("row %d: expected %s, got %s", i, wantLabels[i], rec.UsageLabel)
		}
	}

	first := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC)
	for _, f := range store.forecasts {
		if f.ForecastTimestamp.Before(first) || f.ForecastTimestamp.After(last) {
			t.Fatalf("forecast outside horizon: %s", f.ForecastTimestamp)
		}
		// avg × 0.95 where the hour has history, fallback 1.5 × 0.95 otherwise.
		want := 1.425
		switch f.ForecastTimestamp.Hour() {
		case 18:
			want = 2.375
		case 19:
			want = 1.425
		case 20:
			want = 0.475
		}
		if f.PredictedEnergyKWh != want {
			t.Fatalf("hour %d: expected %v, got %v", f.ForecastTimestamp.Hour(), want, f.PredictedEnergyKWh)
		}
	}

	if len(notifier.events) != 1 || notifier.events[0].HouseholdID != 1 || notifier.events[0].RowsInserted != 3 {
		t.Fatalf("unexpected events %+v", notifier.events)
	}
}

func TestReingestKeepsSingleForecastSet(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, 1, threeRows()); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	later := threeRows()
	for i := range later {
		later[i].Timestamp = later[i].Timestamp.AddDate(0, 0, 3)
	}
	result, err := svc.Ingest(ctx, 1, later)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if got := len(store.forecastsFor(1)); got != 168 {
		t.Fatalf("expected 168 forecasts after reingest, got %d", got)
	}
	if result.NextForecastDate != "2024-01-05" {
		t.Fatalf("expected anchor to move forward, got %s", result.NextForecastDate)
	}
	if len(store.consumption) != 6 {
		t.Fatalf("expected consumption to accumulate, got %d", len(store.consumption))
	}
}

func TestIngestRawRejectsMalformedBatch(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)

	raw := []map[string]string{
		{"timestamp": "2024-01-01 10:00:00", "applianceType": "Oven", "energyKwh": "2.0", "costUsd": "0.2"},
		{"timestamp": "2024-01-01 11:00:00", "applianceType": "Oven", "energyKwh": "abc", "costUsd": "0.2"},
	}
	_, err := svc.IngestRaw(context.Background(), 1, raw)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.consumption) != 0 || len(store.forecasts) != 0 {
		t.Fatalf("malformed batch must not write anything")
	}
}

func TestIngestMissingCostKeepsExistingForecasts(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, 1, threeRows()); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
	before := append([]models.ForecastRecord(nil), store.forecastsFor(1)...)

	raw := []map[string]string{
		{"timestamp": "2024-01-02 09:00:00", "appliance_type": "Washer", "energy_kwh": "1.1"},
	}
	_, err := svc.IngestRaw(ctx, 1, raw)
	var schemaErr *upload.SchemaError
	if !errors.As(err, &schemaErr) || len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != upload.ColumnCostUSD {
		t.Fatalf("expected schema error naming costUsd, got %v", err)
	}
	if !strings.Contains(err.Error(), "costUsd") {
		t.Fatalf("error message must name costUsd: %v", err)
	}
	if len(store.consumption) != 3 {
		t.Fatalf("expected no new rows, found %d", len(store.consumption))
	}
	if after := store.forecastsFor(1); !reflect.DeepEqual(before, after) {
		t.Fatalf("forecast set changed after rejected upload")
	}
}

func TestIngestStoreFailureKeepsPreviousForecasts(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, 1, threeRows()); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
	before := append([]models.ForecastRecord(nil), store.forecastsFor(1)...)

	store.failOn = "insert forecasts"
	later := threeRows()
	for i := range later {
		later[i].Timestamp = later[i].Timestamp.AddDate(0, 0, 2)
	}
	if _, err := svc.Ingest(ctx, 1, later); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(store.consumption) != 3 {
		t.Fatalf("expected consumption rollback, found %d rows", len(store.consumption))
	}
	after := store.forecastsFor(1)
	if len(after) != 168 || !reflect.DeepEqual(before, after) {
		t.Fatalf("expected previous 168 forecasts to survive, got %d", len(after))
	}
}

func TestIngestRejectsNonFiniteReadings(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)
	ctx := context.Background()

	raw := []map[string]string{
		{"timestamp": "2024-01-01 10:00:00", "applianceType": "Oven", "energyKwh": "1e400", "costUsd": "0.2"},
	}
	if _, err := svc.IngestRaw(ctx, 1, raw); !IsValidation(err) {
		t.Fatalf("expected validation error for 1e400, got %v", err)
	}

	rows := threeRows()
	rows[1].EnergyKWh = math.Inf(1)
	_, err := svc.Ingest(ctx, 1, rows)
	var parseErr *upload.RowParseError
	if !errors.As(err, &parseErr) || parseErr.Row != 2 || parseErr.Column != upload.ColumnEnergyKWh {
		t.Fatalf("expected row 2 energy error, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatalf("non-finite readings must be validation errors")
	}
	if len(store.consumption) != 0 || len(store.forecasts) != 0 {
		t.Fatalf("rejected readings must not write anything")
	}
}

func TestIngestRollsBackOnStoreFailure(t *testing.T) {
	store := &memStore{failOn: "insert forecasts"}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)

	_, err := svc.Ingest(context.Background(), 1, threeRows())
	if !errors.Is(err, ErrStore) || !errors.Is(err, errInjected) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "insert forecasts" {
		t.Fatalf("expected insert forecasts op, got %v", err)
	}
	if len(store.consumption) != 0 {
		t.Fatalf("expected consumption rollback, found %d rows", len(store.consumption))
	}
}

func TestRejectPolicyReportsConflict(t *testing.T) {
	store := &memStore{lockHeld: true}
	cfg := DefaultPipelineConfig()
	cfg.ConcurrencyPolicy = PolicyReject
	svc := newTestIngestion(t, store, cfg, nil)

	_, err := svc.Ingest(context.Background(), 1, threeRows())
	if !errors.Is(err, ErrIngestionInProgress) {
		t.Fatalf("expected ErrIngestionInProgress, got %v", err)
	}
	if len(store.consumption) != 0 {
		t.Fatalf("rejected ingestion must not write")
	}
}

func TestIngestRejectsEmptyAndBadHousehold(t *testing.T) {
	svc := newTestIngestion(t, &memStore{}, DefaultPipelineConfig(), nil)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, 1, nil); !errors.Is(err, upload.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := svc.Ingest(ctx, 0, threeRows()); !errors.Is(err, ErrInvalidHousehold) || !IsValidation(err) {
		t.Fatalf("expected ErrInvalidHousehold, got %v", err)
	}
}

func TestIngestUploadParsesStagedCSV(t *testing.T) {
	store := &memStore{}
	svc := newTestIngestion(t, store, DefaultPipelineConfig(), nil)

	body := "timestamp,appliance_type,energy_kwh,cost_usd\n" +
		"2024-03-01 07:00:00,Kettle,1.9,0.23\n" +
		"2024-03-01 08:00:00,Fridge,0.4,0.05\n"
	result, err := svc.IngestUpload(context.Background(), 4, strings.NewReader(body))
	if err != nil {
		t.Fatalf("IngestUpload: %v", err)
	}
	if result.RowsInserted != 2 || result.NextForecastDate != "2024-03-02" {
		t.Fatalf("unexpected result %+v", result)
	}
	if store.consumption[0].UsageLabel != models.UsagePeak || store.consumption[1].UsageLabel != models.UsageOffPeak {
		t.Fatalf("unexpected labels %+v", store.consumption)
	}
}

func TestNewIngestionServiceValidatesConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.NormalThreshold = 2.0
	_, err := NewIngestionService(&memStore{}, upload.NewParser(nil), upload.NewStager("", 0), cfg, nil, nil, zap.NewNop())
	if err == nil {
		t.Fatalf("expected inverted thresholds to be rejected")
	}
}

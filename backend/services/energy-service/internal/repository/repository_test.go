package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ieoms/backend/services/energy-service/internal/models"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn), mock
}

func TestInsertConsumptionBatchUsesSingleStatement(t *testing.T) {
	store, mock := newMock(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []models.ConsumptionRecord{
		{Timestamp: ts, HouseholdID: 7, ApplianceType: "Heater", EnergyKWh: 2.0, CostUSD: 0.24, UsageLabel: models.UsagePeak},
		{Timestamp: ts.Add(time.Hour), HouseholdID: 7, ApplianceType: "Heater", EnergyKWh: 0.9, CostUSD: 0.11, UsageLabel: models.UsageOffPeak},
	}

	mock.ExpectExec(regexp.QuoteMeta(consumptionInsertHead + ` VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)`)).
		WithArgs(ts, int64(7), "Heater", 2.0, 0.24, "Peak", ts.Add(time.Hour), int64(7), "Heater", 0.9, 0.11, "Off-Peak").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.InsertConsumptionBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("InsertConsumptionBatch: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestInsertForecastBatchKeepsCreatedAt(t *testing.T) {
	store, mock := newMock(t)
	ts := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 1, 21, 15, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(forecastInsertHead + ` VALUES ($1,$2,$3,$4,$5,$6,$7)`)).
		WithArgs(ts, int64(7), "Total", 1.2345, "xgboost_v1", 0.95, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := store.InsertForecastBatch(context.Background(), []models.ForecastRecord{{
		ForecastTimestamp:  ts,
		HouseholdID:        7,
		ApplianceType:      models.ForecastApplianceTotal,
		PredictedEnergyKWh: 1.2345,
		ModelVersion:       "xgboost_v1",
		ConfidenceScore:    0.95,
		CreatedAt:          created,
	}})
	if err != nil {
		t.Fatalf("InsertForecastBatch: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCountsPerHousehold(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM energy_consumption WHERE household_id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM energy_forecasts WHERE household_id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(168)))

	readings, err := store.CountConsumption(context.Background(), 3)
	if err != nil || readings != 42 {
		t.Fatalf("CountConsumption: %d, %v", readings, err)
	}
	forecasts, err := store.CountForecasts(context.Background(), 3)
	if err != nil || forecasts != 168 {
		t.Fatalf("CountForecasts: %d, %v", forecasts, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestEmptyBatchSkipsDatabase(t *testing.T) {
	store, mock := newMock(t)
	n, err := store.InsertConsumptionBatch(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestValuesClauseNumbersPlaceholders(t *testing.T) {
	got := valuesClause(2, 3)
	want := "($1,$2,$3),($4,$5,$6)"
	if got != want {
		t.Fatalf("valuesClause = %q, want %q", got, want)
	}
}

func TestMaxTimestampWithoutRows(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`SELECT MAX\(timestamp\)`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	_, ok, err := store.MaxTimestamp(context.Background(), 3)
	if err != nil {
		t.Fatalf("MaxTimestamp: %v", err)
	}
	if ok {
		t.Fatalf("expected no timestamp for empty household")
	}
}

func TestHourlyAveragesBuildsSparseMap(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`(?s)SELECT EXTRACT\(HOUR FROM timestamp AT TIME ZONE 'UTC'\)::int AS hour.*GROUP BY hour`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"hour", "avg_kwh"}).AddRow(0, 0.5).AddRow(18, 2.25))

	avg, err := store.HourlyAverages(context.Background(), 1)
	if err != nil {
		t.Fatalf("HourlyAverages: %v", err)
	}
	if len(avg) != 2 || avg[18] != 2.25 || avg[0] != 0.5 {
		t.Fatalf("unexpected averages %v", avg)
	}
}

func TestQueryCostBreakdownUsesWindowSeconds(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`(?s)SELECT appliance_type,.*SUM\(cost_usd\).*make_interval\(secs => \$2\).*ORDER BY total_cost DESC`).
		WithArgs(int64(1), float64(30*24*3600)).
		WillReturnRows(sqlmock.NewRows([]string{"appliance_type", "total_kwh", "total_cost", "avg_kwh", "usage_count"}).
			AddRow("Heater", 10.0, 1.2, 2.0, 5).
			AddRow("Fridge", 4.0, 0.48, 0.8, 5))

	rows, err := store.QueryCostBreakdown(context.Background(), 1, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("QueryCostBreakdown: %v", err)
	}
	if len(rows) != 2 || rows[0].ApplianceType != "Heater" || rows[1].UsageCount != 5 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestQueryPeakHistogramBindsKnownLabels(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`(?s)usage_label IN \(\$2, \$3, \$4\)`).
		WithArgs(int64(1), "Peak", "Normal", "Off-Peak").
		WillReturnRows(sqlmock.NewRows([]string{"usage_label", "hour", "frequency", "avg_energy_kwh"}).
			AddRow("Off-Peak", 3, 4, 0.4))

	rows, err := store.QueryPeakHistogram(context.Background(), 1)
	if err != nil {
		t.Fatalf("QueryPeakHistogram: %v", err)
	}
	if len(rows) != 1 || rows[0].UsageLabel != models.UsageOffPeak || rows[0].Frequency != 4 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestWithTxRollsBackAndWrapsError(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM energy_forecasts`).
		WithArgs(int64(9)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(q *Queries) error {
		_, err := q.DeleteForecasts(context.Background(), 9)
		return err
	})
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DBError, got %v", err)
	}
	if dbErr.Operation != "delete forecasts" {
		t.Fatalf("unexpected operation %q", dbErr.Operation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestTryLockHousehold(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(false))

	ok, err := store.TryLockHousehold(context.Background(), 1)
	if err != nil {
		t.Fatalf("TryLockHousehold: %v", err)
	}
	if ok {
		t.Fatalf("expected lock to be reported busy")
	}
}

func TestInsertRecommendationsFillsIDs(t *testing.T) {
	store, mock := newMock(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT INTO recommendations .* RETURNING id, created_at`).
		WithArgs(int64(1), "Shift laundry", 10.0, 1.2, "medium", int64(1), "Lower thermostat", 20.0, 2.4, "high").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created).AddRow(12, created))

	recs := []models.Recommendation{
		{HouseholdID: 1, Text: "Shift laundry", PotentialSavingsKWh: 10, PotentialSavingsUSD: 1.2, Priority: models.PriorityMedium},
		{HouseholdID: 1, Text: "Lower thermostat", PotentialSavingsKWh: 20, PotentialSavingsUSD: 2.4, Priority: models.PriorityHigh},
	}
	if err := store.InsertRecommendations(context.Background(), recs); err != nil {
		t.Fatalf("InsertRecommendations: %v", err)
	}
	if recs[0].ID != 11 || recs[1].ID != 12 {
		t.Fatalf("ids not filled: %+v", recs)
	}
}

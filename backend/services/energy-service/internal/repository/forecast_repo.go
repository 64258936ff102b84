package repository

import (
	"context"
	"time"

	"ieoms/backend/services/energy-service/internal/models"
)

const forecastInsertHead = `INSERT INTO energy_forecasts (forecast_timestamp, household_id, appliance_type, predicted_energy_kwh, model_version, confidence_score, created_at)`

// DeleteForecasts removes the whole forecast set of a household.
func (q *Queries) DeleteForecasts(ctx context.Context, householdID int64) (int64, error) {
	const query = `DELETE FROM energy_forecasts WHERE household_id = $1`
	result, err := q.db.ExecContext(ctx, query, householdID)
	if err != nil {
		return 0, wrapDBError("delete forecasts", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapDBError("delete forecasts", err)
	}
	return affected, nil
}

// InsertForecastBatch stores forecast rows with bulk statements. Rows keep the CreatedAt
// stamped by the synthesizer; a zero value is stored as the current time.
func (q *Queries) InsertForecastBatch(ctx context.Context, records []models.ForecastRecord) (int64, error) {
	now := time.Now().UTC()
	return q.execBatch(ctx, "insert forecast batch", forecastInsertHead, 7, len(records), func(i int) []any {
		r := records[i]
		created := r.CreatedAt
		if created.IsZero() {
			created = now
		}
		return []any{r.ForecastTimestamp.UTC(), r.HouseholdID, r.ApplianceType, r.PredictedEnergyKWh, r.ModelVersion, r.ConfidenceScore, created.UTC()}
	})
}

// ListForecasts returns the forecasts within the trailing window ending at the household's
// latest forecast timestamp, oldest first.
func (q *Queries) ListForecasts(ctx context.Context, householdID int64, window time.Duration) ([]models.ForecastRecord, error) {
	const query = `
		SELECT id, forecast_timestamp, household_id, appliance_type, predicted_energy_kwh::float8,
		       model_version, confidence_score, created_at
		FROM energy_forecasts
		WHERE household_id = $1
		  AND forecast_timestamp >= (
		      SELECT MAX(forecast_timestamp) FROM energy_forecasts WHERE household_id = $1
		  ) - make_interval(secs => $2)
		ORDER BY forecast_timestamp ASC
	`
	rows, err := q.db.QueryContext(ctx, query, householdID, window.Seconds())
	if err != nil {
		return nil, wrapDBError("list forecasts", err)
	}
	defer rows.Close()

	var forecasts []models.ForecastRecord
	for rows.Next() {
		var f models.ForecastRecord
		if err := rows.Scan(
			&f.ID,
			&f.ForecastTimestamp,
			&f.HouseholdID,
			&f.ApplianceType,
			&f.PredictedEnergyKWh,
			&f.ModelVersion,
			&f.ConfidenceScore,
			&f.CreatedAt,
		); err != nil {
			return nil, wrapDBError("list forecasts", err)
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("list forecasts", err)
	}
	return forecasts, nil
}

// CountForecasts returns the size of a household's forecast set.
func (q *Queries) CountForecasts(ctx context.Context, householdID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM energy_forecasts WHERE household_id = $1`
	var n int64
	if err := q.db.QueryRowContext(ctx, query, householdID).Scan(&n); err != nil {
		return 0, wrapDBError("count forecasts", err)
	}
	return n, nil
}

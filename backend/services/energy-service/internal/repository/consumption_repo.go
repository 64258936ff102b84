package repository

import (
	"context"
	"database/sql"
	"time"

	"ieoms/backend/services/energy-service/internal/models"
)

const consumptionInsertHead = `INSERT INTO energy_consumption (timestamp, household_id, appliance_type, energy_kwh, cost_usd, usage_label)`

// InsertConsumptionBatch stores all records with bulk statements and returns the row count.
func (q *Queries) InsertConsumptionBatch(ctx context.Context, records []models.ConsumptionRecord) (int64, error) {
	return q.execBatch(ctx, "insert consumption batch", consumptionInsertHead, 6, len(records), func(i int) []any {
		r := records[i]
		return []any{r.Timestamp.UTC(), r.HouseholdID, r.ApplianceType, r.EnergyKWh, r.CostUSD, string(r.UsageLabel)}
	})
}

// MaxTimestamp returns the latest consumption timestamp of a household. ok is false when
// the household has no rows.
func (q *Queries) MaxTimestamp(ctx context.Context, householdID int64) (ts time.Time, ok bool, err error) {
	const query = `
		SELECT MAX(timestamp)
		FROM energy_consumption
		WHERE household_id = $1
	`
	var maxTS sql.NullTime
	if err := q.db.QueryRowContext(ctx, query, householdID).Scan(&maxTS); err != nil {
		return time.Time{}, false, wrapDBError("max timestamp", err)
	}
	if !maxTS.Valid {
		return time.Time{}, false, nil
	}
	return maxTS.Time.UTC(), true, nil
}

// HourlyAverages returns the mean kWh per UTC hour of day over the household's whole
// history. Hours without observations are absent from the map.
func (q *Queries) HourlyAverages(ctx context.Context, householdID int64) (map[int]float64, error) {
	const query = `
		SELECT EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour,
		       AVG(energy_kwh) AS avg_kwh
		FROM energy_consumption
		WHERE household_id = $1
		GROUP BY hour
		ORDER BY hour
	`
	rows, err := q.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, wrapDBError("hourly averages", err)
	}
	defer rows.Close()

	averages := make(map[int]float64, 24)
	for rows.Next() {
		var (
			hour int
			avg  float64
		)
		if err := rows.Scan(&hour, &avg); err != nil {
			return nil, wrapDBError("hourly averages", err)
		}
		averages[hour] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("hourly averages", err)
	}
	return averages, nil
}

// CountConsumption returns the number of stored readings of a household.
func (q *Queries) CountConsumption(ctx context.Context, householdID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM energy_consumption WHERE household_id = $1`
	var n int64
	if err := q.db.QueryRowContext(ctx, query, householdID).Scan(&n); err != nil {
		return 0, wrapDBError("count consumption", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"time"

	"ieoms/backend/services/energy-service/internal/models"
)

// Every windowed query below measures the window back from the household's own latest
// reading, not from the wall clock: uploads are historical data.

// QueryConsumption groups readings by hour bucket, appliance and label, newest hour first.
func (q *Queries) QueryConsumption(ctx context.Context, householdID int64, window time.Duration) ([]models.HourlyUsage, error) {
	const query = `
		SELECT date_trunc('hour', timestamp, 'UTC') AS hour,
		       appliance_type,
		       usage_label,
		       AVG(energy_kwh) AS avg_energy_kwh,
		       AVG(cost_usd) AS avg_cost_usd
		FROM energy_consumption
		WHERE household_id = $1
		  AND timestamp >= (
		      SELECT MAX(timestamp) FROM energy_consumption WHERE household_id = $1
		  ) - make_interval(secs => $2)
		GROUP BY hour, appliance_type, usage_label
		ORDER BY hour DESC, appliance_type, usage_label
	`
	rows, err := q.db.QueryContext(ctx, query, householdID, window.Seconds())
	if err != nil {
		return nil, wrapDBError("query consumption", err)
	}
	defer rows.Close()

	var result []models.HourlyUsage
	for rows.Next() {
		var (
			row   models.HourlyUsage
			label string
		)
		if err := rows.Scan(&row.Hour, &row.ApplianceType, &label, &row.AvgEnergyKWh, &row.AvgCostUSD); err != nil {
			return nil, wrapDBError("query consumption", err)
		}
		row.Hour = row.Hour.UTC()
		row.UsageLabel = models.UsageLabel(label)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("query consumption", err)
	}
	return result, nil
}

// QueryPeakHistogram counts readings per (label, hour of day) over the whole history.
func (q *Queries) QueryPeakHistogram(ctx context.Context, householdID int64) ([]models.PeakHistogramRow, error) {
	const query = `
		SELECT usage_label,
		       EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour,
		       COUNT(*) AS frequency,
		       AVG(energy_kwh) AS avg_energy_kwh
		FROM energy_consumption
		WHERE household_id = $1
		  AND usage_label IN ($2, $3, $4)
		GROUP BY usage_label, hour
		ORDER BY usage_label, hour
	`
	args := []any{householdID}
	for _, label := range models.UsageLabels {
		args = append(args, string(label))
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("query peak histogram", err)
	}
	defer rows.Close()

	var result []models.PeakHistogramRow
	for rows.Next() {
		var (
			row   models.PeakHistogramRow
			label string
		)
		if err := rows.Scan(&label, &row.Hour, &row.Frequency, &row.AvgEnergyKWh); err != nil {
			return nil, wrapDBError("query peak histogram", err)
		}
		row.UsageLabel = models.UsageLabel(label)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("query peak histogram", err)
	}
	return result, nil
}

// QueryCostBreakdown totals readings per appliance, most expensive first.
func (q *Queries) QueryCostBreakdown(ctx context.Context, householdID int64, window time.Duration) ([]models.ApplianceCostRow, error) {
	const query = `
		SELECT appliance_type,
		       SUM(energy_kwh) AS total_kwh,
		       SUM(cost_usd) AS total_cost,
		       AVG(energy_kwh) AS avg_kwh,
		       COUNT(*) AS usage_count
		FROM energy_consumption
		WHERE household_id = $1
		  AND timestamp >= (
		      SELECT MAX(timestamp) FROM energy_consumption WHERE household_id = $1
		  ) - make_interval(secs => $2)
		GROUP BY appliance_type
		ORDER BY total_cost DESC
	`
	rows, err := q.db.QueryContext(ctx, query, householdID, window.Seconds())
	if err != nil {
		return nil, wrapDBError("query cost breakdown", err)
	}
	defer rows.Close()

	var result []models.ApplianceCostRow
	for rows.Next() {
		var row models.ApplianceCostRow
		if err := rows.Scan(&row.ApplianceType, &row.TotalKWh, &row.TotalCost, &row.AvgKWh, &row.UsageCount); err != nil {
			return nil, wrapDBError("query cost breakdown", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("query cost breakdown", err)
	}
	return result, nil
}

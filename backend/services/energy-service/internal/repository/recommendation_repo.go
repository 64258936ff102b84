package repository

import (
	"context"
	"time"

	"ieoms/backend/services/energy-service/internal/models"
)

// ApplianceLabelUsage summarizes consumption per appliance and label for the trailing window.
func (q *Queries) ApplianceLabelUsage(ctx context.Context, householdID int64, window time.Duration) ([]models.ApplianceLabelUsage, error) {
	const query = `
		SELECT appliance_type,
		       usage_label,
		       AVG(energy_kwh) AS avg_kwh,
		       SUM(cost_usd) AS total_cost
		FROM energy_consumption
		WHERE household_id = $1
		  AND timestamp >= (
		      SELECT MAX(timestamp) FROM energy_consumption WHERE household_id = $1
		  ) - make_interval(secs => $2)
		GROUP BY appliance_type, usage_label
		ORDER BY total_cost DESC
	`
	rows, err := q.db.QueryContext(ctx, query, householdID, window.Seconds())
	if err != nil {
		return nil, wrapDBError("appliance label usage", err)
	}
	defer rows.Close()

	var result []models.ApplianceLabelUsage
	for rows.Next() {
		var (
			row   models.ApplianceLabelUsage
			label string
		)
		if err := rows.Scan(&row.ApplianceType, &label, &row.AvgKWh, &row.TotalCost); err != nil {
			return nil, wrapDBError("appliance label usage", err)
		}
		row.UsageLabel = models.UsageLabel(label)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("appliance label usage", err)
	}
	return result, nil
}

// TopPeakHours returns the hours with the highest average Peak consumption in the window.
func (q *Queries) TopPeakHours(ctx context.Context, householdID int64, window time.Duration, limit int) ([]models.HourAverage, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
		SELECT EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour,
		       AVG(energy_kwh) AS avg_kwh
		FROM energy_consumption
		WHERE household_id = $1
		  AND usage_label = $2
		  AND timestamp >= (
		      SELECT MAX(timestamp) FROM energy_consumption WHERE household_id = $1
		  ) - make_interval(secs => $3)
		GROUP BY hour
		ORDER BY avg_kwh DESC
		LIMIT $4
	`
	rows, err := q.db.QueryContext(ctx, query, householdID, string(models.UsagePeak), window.Seconds(), limit)
	if err != nil {
		return nil, wrapDBError("top peak hours", err)
	}
	defer rows.Close()

	var result []models.HourAverage
	for rows.Next() {
		var row models.HourAverage
		if err := rows.Scan(&row.Hour, &row.AvgKWh); err != nil {
			return nil, wrapDBError("top peak hours", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("top peak hours", err)
	}
	return result, nil
}

// InsertRecommendations appends recommendations and fills their ids and creation times.
func (q *Queries) InsertRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	args := make([]any, 0, len(recs)*5)
	for _, r := range recs {
		args = append(args, r.HouseholdID, r.Text, r.PotentialSavingsKWh, r.PotentialSavingsUSD, string(r.Priority))
	}
	query := `INSERT INTO recommendations (household_id, recommendation_text, potential_savings_kwh, potential_savings_usd, priority) VALUES ` +
		valuesClause(len(recs), 5) + ` RETURNING id, created_at`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return wrapDBError("insert recommendations", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() && i < len(recs) {
		if err := rows.Scan(&recs[i].ID, &recs[i].CreatedAt); err != nil {
			return wrapDBError("insert recommendations", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return wrapDBError("insert recommendations", err)
	}
	return nil
}

package events

import (
	"context"
	"errors"
	"time"
)

// TypeIngestionCompleted marks a committed ingestion.
const TypeIngestionCompleted = "ingestion.completed"

// IngestionEvent is published after an ingestion commits.
type IngestionEvent struct {
	Type               string    `json:"type"`
	BatchID            string    `json:"batch_id"`
	HouseholdID        int64     `json:"household_id"`
	RowsInserted       int64     `json:"rows_inserted"`
	ForecastsGenerated int64     `json:"forecasts_generated"`
	From               time.Time `json:"from"`
	To                 time.Time `json:"to"`
	NextForecastDate   string    `json:"next_forecast_date"`
	ModelVersion       string    `json:"model_version"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Notifier delivers ingestion events. Delivery is best effort and never affects the
// committed ingestion.
type Notifier interface {
	Publish(ctx context.Context, event IngestionEvent) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Notifier.
func (Nop) Publish(context.Context, IngestionEvent) error { return nil }

// Multi fans an event out to several notifiers and joins their errors.
type Multi []Notifier

// Publish implements Notifier.
func (m Multi) Publish(ctx context.Context, event IngestionEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

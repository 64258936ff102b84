package service

import (
	"context"
	"time"

	"ieoms/backend/services/energy-service/internal/models"
	"ieoms/backend/services/energy-service/internal/repository"
)

// IngestionTx is the set of statements an ingestion runs inside one transaction.
type IngestionTx interface {
	InsertConsumptionBatch(ctx context.Context, records []models.ConsumptionRecord) (int64, error)
	MaxTimestamp(ctx context.Context, householdID int64) (time.Time, bool, error)
	HourlyAverages(ctx context.Context, householdID int64) (map[int]float64, error)
	DeleteForecasts(ctx context.Context, householdID int64) (int64, error)
	InsertForecastBatch(ctx context.Context, records []models.ForecastRecord) (int64, error)
	LockHousehold(ctx context.Context, householdID int64) error
	TryLockHousehold(ctx context.Context, householdID int64) (bool, error)
}

// Transactor runs fn atomically: every write in fn commits together or not at all.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx IngestionTx) error) error
}

type sqlTransactor struct {
	store *repository.Store
}

// NewSQLTransactor adapts the relational store.
func NewSQLTransactor(store *repository.Store) Transactor {
	return &sqlTransactor{store: store}
}

func (t *sqlTransactor) RunInTx(ctx context.Context, fn func(tx IngestionTx) error) error {
	return t.store.WithTx(ctx, func(q *repository.Queries) error {
		return fn(q)
	})
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ieoms/backend/services/energy-service/internal/events"
	"ieoms/backend/services/energy-service/internal/models"
)

var errInjected = errors.New("injected store failure")

type constJitter float64

func (c constJitter) Float64() float64 { return float64(c) }

// memStore is a transactional in-memory stand-in for the relational store.
type memStore struct {
	mu          sync.Mutex
	consumption []models.ConsumptionRecord
	forecasts   []models.ForecastRecord
	failOn      string
	lockHeld    bool
}

func (m *memStore) RunInTx(ctx context.Context, fn func(tx IngestionTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{
		store:       m,
		consumption: append([]models.ConsumptionRecord(nil), m.consumption...),
		forecasts:   append([]models.ForecastRecord(nil), m.forecasts...),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.consumption = tx.consumption
	m.forecasts = tx.forecasts
	return nil
}

func (m *memStore) forecastsFor(householdID int64) []models.ForecastRecord {
	var out []models.ForecastRecord
	for _, f := range m.forecasts {
		if f.HouseholdID == householdID {
			out = append(out, f)
		}
	}
	return out
}

type memTx struct {
	store       *memStore
	consumption []models.ConsumptionRecord
	forecasts   []models.ForecastRecord
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) InsertConsumptionBatch(_ context.Context, records []models.ConsumptionRecord) (int64, error) {
	if err := t.fail("insert consumption"); err != nil {
		return 0, err
	}
	t.consumption = append(t.consumption, records...)
	return int64(len(records)), nil
}

func (t *memTx) MaxTimestamp(_ context.Context, householdID int64) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, r := range t.consumption {
		if r.HouseholdID == householdID && (!found || r.Timestamp.After(latest)) {
			latest, found = r.Timestamp, true
		}
	}
	return latest, found, nil
}

func (t *memTx) HourlyAverages(_ context.Context, householdID int64) (map[int]float64, error) {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range t.consumption {
		if r.HouseholdID != householdID {
			continue
		}
		h := r.Timestamp.UTC().Hour()
		sums[h] += r.EnergyKWh
		counts[h]++
	}
	out := make(map[int]float64, len(sums))
	for h, sum := range sums {
		out[h] = sum / float64(counts[h])
	}
	return out, nil
}

func (t *memTx) DeleteForecasts(_ context.Context, householdID int64) (int64, error) {
	kept := t.forecasts[:0:0]
	var removed int64
	for _, f := range t.forecasts {
		if f.HouseholdID == householdID {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	t.forecasts = kept
	return removed, nil
}

func (t *memTx) InsertForecastBatch(_ context.Context, records []models.ForecastRecord) (int64, error) {
	if err := t.fail("insert forecasts"); err != nil {
		return 0, err
	}
	t.forecasts = append(t.forecasts, records...)
	return int64(len(records)), nil
}

func (t *memTx) LockHousehold(context.Context, int64) error { return nil }

func (t *memTx) TryLockHousehold(context.Context, int64) (bool, error) {
	return !t.store.lockHeld, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []events.IngestionEvent
}

func (c *captureNotifier) Publish(_ context.Context, e events.IngestionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

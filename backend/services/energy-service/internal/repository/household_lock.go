package repository

import (
	"context"

	libdb "ieoms/backend/libs/db"
)

const ingestionLockNamespace = "energy-ingestion"

// LockHousehold blocks until the transaction-scoped ingestion lock of the household is
// held. The lock is released by commit or rollback.
func (q *Queries) LockHousehold(ctx context.Context, householdID int64) error {
	const query = `SELECT pg_advisory_xact_lock($1)`
	key := libdb.AdvisoryLockKey(ingestionLockNamespace, householdID)
	if _, err := q.db.ExecContext(ctx, query, key); err != nil {
		return wrapDBError("lock household", err)
	}
	return nil
}

// TryLockHousehold attempts the transaction-scoped ingestion lock without waiting.
func (q *Queries) TryLockHousehold(ctx context.Context, householdID int64) (bool, error) {
	const query = `SELECT pg_try_advisory_xact_lock($1)`
	key := libdb.AdvisoryLockKey(ingestionLockNamespace, householdID)
	var ok bool
	if err := q.db.QueryRowContext(ctx, query, key).Scan(&ok); err != nil {
		return false, wrapDBError("try lock household", err)
	}
	return ok, nil
}

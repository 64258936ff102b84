package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	libdb "ieoms/backend/libs/db"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries groups every statement the service runs. It is bound either to the pool or
// to a single transaction.
type Queries struct {
	db DBTX
}

// NewQueries binds queries to a connection or transaction.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// Store owns the pool and hands out transaction-scoped Queries.
type Store struct {
	*Queries
	conn *sql.DB
}

// NewStore returns store backed by the pool.
func NewStore(conn *sql.DB) *Store {
	return &Store{Queries: NewQueries(conn), conn: conn}
}

// WithTx runs fn with Queries bound to one transaction at the server's default isolation
// level. Everything fn does is committed together or rolled back together.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	return libdb.WithTx(ctx, s.conn, nil, func(tx *sql.Tx) error {
		return fn(NewQueries(tx))
	})
}

// DBError carries the failing operation and, for PostgreSQL errors, the SQLSTATE code.
type DBError struct {
	Operation string
	Code      string
	Err       error
}

func (e *DBError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("database error in %s (%s): %v", e.Operation, e.Code, e.Err)
	}
	return fmt.Sprintf("database error in %s: %v", e.Operation, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func wrapDBError(operation string, err error) error {
	if err == nil {
		return nil
	}
	dbErr := &DBError{Operation: operation, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		dbErr.Code = pgErr.Code
	}
	return dbErr
}

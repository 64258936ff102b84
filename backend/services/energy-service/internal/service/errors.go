package service

import (
	"errors"
	"fmt"

	"ieoms/backend/services/energy-service/internal/upload"
)

var (
	// ErrStore is matched by every persistence failure surfaced by the services.
	ErrStore = errors.New("store failure")
	// ErrIngestionInProgress is returned under the reject policy when another ingestion
	// for the same household holds the lock.
	ErrIngestionInProgress = errors.New("ingestion already in progress for household")
	// ErrInvalidHousehold rejects non-positive household ids.
	ErrInvalidHousehold = fmt.Errorf("%w: household id must be positive", upload.ErrValidation)
	// ErrInvalidWindow rejects non-positive or oversized reporting windows.
	ErrInvalidWindow = fmt.Errorf("%w: window must be between 1 and the configured maximum", upload.ErrValidation)
)

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// IsValidation reports whether err rejected input before any store mutation.
func IsValidation(err error) bool {
	return errors.Is(err, upload.ErrValidation)
}

package upload

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every error that rejects a batch before the store is touched.
var ErrValidation = errors.New("upload: validation failed")

var (
	// ErrEmptyInput is returned for uploads without data rows.
	ErrEmptyInput = validationError("upload: input contains no rows")
	// ErrPayloadTooLarge is returned when the staged payload exceeds the configured ceiling.
	ErrPayloadTooLarge = validationError("upload: payload too large")
	// ErrUnsupportedFile is returned for non-CSV uploads.
	ErrUnsupportedFile = validationError("upload: only CSV files are allowed")
	// ErrMalformedCSV is returned when the payload is not readable as CSV.
	ErrMalformedCSV = validationError("upload: malformed csv")
)

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == ErrValidation }

// SchemaError names the required columns missing from the first row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("upload: missing required columns: %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrValidation }

// RowParseError reports the first unparsable field. Row is 1-based and counts data rows only.
type RowParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("upload: row %d: invalid %s %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }

func (e *RowParseError) Is(target error) bool { return target == ErrValidation }

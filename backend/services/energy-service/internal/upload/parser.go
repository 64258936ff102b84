package upload

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ieoms/backend/services/energy-service/internal/models"
)

// Canonical column names.
const (
	ColumnTimestamp     = "timestamp"
	ColumnApplianceType = "applianceType"
	ColumnEnergyKWh     = "energyKwh"
	ColumnCostUSD       = "costUsd"
)

// RequiredColumns must all be present in the first row of a batch.
var RequiredColumns = []string{ColumnTimestamp, ColumnApplianceType, ColumnEnergyKWh, ColumnCostUSD}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parser validates raw upload rows.
type Parser struct {
	location *time.Location
}

// NewParser returns parser. Timestamps without a zone are read in loc, or UTC when nil.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{location: loc}
}

// Parse converts raw rows into typed rows. Column presence is checked against the first
// row only; any unparsable value aborts the whole batch.
func (p *Parser) Parse(rows []map[string]string) ([]models.ParsedRow, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	columns := resolveColumns(rows[0])
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	parsed := make([]models.ParsedRow, 0, len(rows))
	for i, raw := range rows {
		rowNum := i + 1

		tsRaw := strings.TrimSpace(raw[columns[ColumnTimestamp]])
		ts, err := p.parseTimestamp(tsRaw)
		if err != nil {
			return nil, &RowParseError{Row: rowNum, Column: ColumnTimestamp, Value: tsRaw, Err: err}
		}

		energy, err := parseNonNegative(raw[columns[ColumnEnergyKWh]])
		if err != nil {
			return nil, &RowParseError{Row: rowNum, Column: ColumnEnergyKWh, Value: raw[columns[ColumnEnergyKWh]], Err: err}
		}
		cost, err := parseNonNegative(raw[columns[ColumnCostUSD]])
		if err != nil {
			return nil, &RowParseError{Row: rowNum, Column: ColumnCostUSD, Value: raw[columns[ColumnCostUSD]], Err: err}
		}

		parsed = append(parsed, models.ParsedRow{
			Timestamp:     ts,
			ApplianceType: strings.TrimSpace(raw[columns[ColumnApplianceType]]),
			EnergyKWh:     energy,
			CostUSD:       cost,
		})
	}
	return parsed, nil
}

func (p *Parser) parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty value")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, value, p.location)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// MaxReading bounds energy and cost values so that forecasts derived from them fit the
// NUMERIC(12,4) prediction column.
var MaxReading = decimal.New(1, 7)

// ErrOutOfRange rejects readings that are not finite or exceed MaxReading.
var ErrOutOfRange = fmt.Errorf("must be finite and not exceed %s", MaxReading.String())

// CheckReading applies the same bounds to an already typed value.
func CheckReading(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v > MaxReading.InexactFloat64() {
		return ErrOutOfRange
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// parseNonNegative parses a plain decimal ("1.25", not "1,25") independent of locale.
func parseNonNegative(value string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errors.New("must not be negative")
	}
	if d.GreaterThan(MaxReading) {
		return 0, ErrOutOfRange
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, ErrOutOfRange
	}
	return f, nil
}

// resolveColumns maps canonical names to the header spelling used by the upload, so that
// energy_kwh, EnergyKwh and energyKwh all resolve to energyKwh.
func resolveColumns(first map[string]string) map[string]string {
	byKey := make(map[string]string, len(first))
	for header := range first {
		byKey[columnKey(header)] = header
	}
	resolved := make(map[string]string, len(RequiredColumns))
	for _, col := range RequiredColumns {
		if header, ok := byKey[columnKey(col)]; ok {
			resolved[col] = header
		}
	}
	return resolved
}

func columnKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

package upload

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func row(ts, appliance, energy, cost string) map[string]string {
	return map[string]string{
		"timestamp":      ts,
		"appliance_type": appliance,
		"energy_kwh":     energy,
		"cost_usd":       cost,
	}
}

func TestParseValidRows(t *testing.T) {
	p := NewParser(nil)
	rows, err := p.Parse([]map[string]string{
		row("2024-03-01 10:00:00", "Heater", "2.0", "0.24"),
		row("2024-03-01T11:00:00Z", " Heater ", "1.5", "0.18"),
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !rows[0].Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp %s", rows[0].Timestamp)
	}
	if rows[1].ApplianceType != "Heater" || rows[1].EnergyKWh != 1.5 || rows[1].CostUSD != 0.18 {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestParseAcceptsCanonicalHeaders(t *testing.T) {
	p := NewParser(nil)
	_, err := p.Parse([]map[string]string{{
		"timestamp":     "2024-03-01",
		"applianceType": "Fridge",
		"energyKwh":     "0.8",
		"costUsd":       "0.1",
	}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := NewParser(nil).Parse(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("empty input must be a validation error")
	}
}

func TestParseMissingColumnNamesIt(t *testing.T) {
	first := row("2024-03-01 10:00:00", "Heater", "2.0", "0.24")
	delete(first, "cost_usd")

	_, err := NewParser(nil).Parse([]map[string]string{first})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "costUsd" {
		t.Fatalf("unexpected missing columns %v", schemaErr.Missing)
	}
	if !strings.Contains(err.Error(), "costUsd") {
		t.Fatalf("message should name costUsd: %s", err.Error())
	}
}

func TestParseChecksColumnsOnFirstRowOnly(t *testing.T) {
	second := map[string]string{"timestamp": "2024-03-01 11:00:00"}
	_, err := NewParser(nil).Parse([]map[string]string{
		row("2024-03-01 10:00:00", "Heater", "2.0", "0.24"),
		second,
	})
	var parseErr *RowParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected RowParseError for the incomplete row, got %v", err)
	}
	if parseErr.Row != 2 || parseErr.Column != ColumnEnergyKWh {
		t.Fatalf("unexpected error location %+v", parseErr)
	}
}

func TestParseRejectsWholeBatchOnBadNumber(t *testing.T) {
	tests := []struct {
		name   string
		energy string
		cost   string
		column string
	}{
		{name: "non numeric energy", energy: "abc", cost: "0.1", column: ColumnEnergyKWh},
		{name: "locale comma", energy: "1,5", cost: "0.1", column: ColumnEnergyKWh},
		{name: "negative cost", energy: "1.0", cost: "-0.1", column: ColumnCostUSD},
		{name: "overflowing exponent", energy: "1e400", cost: "0.1", column: ColumnEnergyKWh},
		{name: "beyond forecast precision", energy: "2e8", cost: "0.1", column: ColumnEnergyKWh},
		{name: "huge cost", energy: "1.0", cost: "1e400", column: ColumnCostUSD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewParser(nil).Parse([]map[string]string{
				row("2024-03-01 10:00:00", "Heater", "2.0", "0.24"),
				row("2024-03-01 11:00:00", "Heater", tt.energy, tt.cost),
			})
			if rows != nil {
				t.Fatalf("expected no rows on failure, got %d", len(rows))
			}
			var parseErr *RowParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected RowParseError, got %v", err)
			}
			if parseErr.Column != tt.column {
				t.Fatalf("expected column %s, got %s", tt.column, parseErr.Column)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("row errors must be validation errors")
			}
		})
	}
}

func TestParseAcceptsUpperBound(t *testing.T) {
	rows, err := NewParser(nil).Parse([]map[string]string{row("2024-03-01 10:00:00", "Pump", "10000000", "1e3")})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rows[0].EnergyKWh != 1e7 || rows[0].CostUSD != 1000 {
		t.Fatalf("unexpected values %+v", rows[0])
	}
}

func TestParseRejectsBadTimestamp(t *testing.T) {
	_, err := NewParser(nil).Parse([]map[string]string{row("yesterday", "Heater", "1", "1")})
	var parseErr *RowParseError
	if !errors.As(err, &parseErr) || parseErr.Column != ColumnTimestamp {
		t.Fatalf("expected timestamp RowParseError, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	input := "\ufefftimestamp,appliance_type,energy_kwh,cost_usd\n" +
		"2024-03-01 10:00:00,Heater,2.0,0.24\n" +
		"2024-03-01 11:00:00,Heater,1.5\n"
	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["timestamp"] != "2024-03-01 10:00:00" {
		t.Fatalf("BOM not stripped from header: %v", rows[0])
	}
	if v, ok := rows[1]["cost_usd"]; !ok || v != "" {
		t.Fatalf("short record should leave cost empty, got %q %v", v, ok)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestReadCSVMalformedIsValidation(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,applianceType\n\"2024-01-01,Oven\n"))
	if !errors.Is(err, ErrMalformedCSV) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected malformed csv validation error, got %v", err)
	}
}

package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{"canonical", "2024-12-14", "2024-12-14", true},
		{"slash day first", "14/12/2024", "2024-12-14", true},
		{"dash day first", "14-12-2024", "2024-12-14", true},
		{"slash year first", "2024/12/14", "2024-12-14", true},
		{"epoch seconds", float64(1734134400), "2024-12-14", true},
		{"epoch milliseconds", float64(1734134400000), "2024-12-14", true},
		{"epoch string", "1734134400", "2024-12-14", true},
		{"padded", "  2024-12-14  ", "2024-12-14", true},
		{"garbage", "tomorrow", "", false},
		{"negative epoch", float64(-5), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{"float", float64(-23.5), "-23.5", true},
		{"plain string", "100.25", "100.25", true},
		{"thousands comma", "1,234.56", "1234.56", true},
		{"decimal comma", "1234,56", "1234.56", true},
		{"space grouped decimal comma", "1 234,56", "1234.56", true},
		{"not a number", "??", "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCoerceDescription(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string passthrough", "Taxi airport", "Taxi airport"},
		{"trims", "  Rent  ", "Rent"},
		{"empty becomes placeholder", "", placeholderDescription},
		{"blank becomes placeholder", "   ", placeholderDescription},
		{"nil becomes placeholder", nil, placeholderDescription},
		{"number stringified", float64(42), "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceDescription(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairRecord(t *testing.T) {
	in := map[string]any{
		"date":        "14/12/2024",
		"description": nil,
		"amount":      "1,234.56",
		"category":    " transport ",
		"currency":    "eur",
	}

	out := repairRecord(in)

	if out["date"] != "2024-12-14" {
		t.Errorf("date = %v, want 2024-12-14", out["date"])
	}
	if out["description"] != placeholderDescription {
		t.Errorf("description = %v, want placeholder", out["description"])
	}
	amount, ok := out["amount"].(decimal.Decimal)
	if !ok || amount.String() != "1234.56" {
		t.Errorf("amount = %v, want decimal 1234.56", out["amount"])
	}
	if out["category"] != "TRANSPORT" {
		t.Errorf("category = %v, want TRANSPORT", out["category"])
	}
	if out["currency"] != "EUR" {
		t.Errorf("currency = %v, want EUR", out["currency"])
	}

	// Input map is never mutated.
	if in["date"] != "14/12/2024" {
		t.Errorf("input mutated: date = %v", in["date"])
	}
}

package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestParseAmount_CommaDecimal(t *testing.T) {
	got, err := ParseAmount("1.234,56")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.Equal(mustDecimal(t, "1234.56")) {
		t.Errorf("Expected 1234.56, got %s", got)
	}
}

func TestParseAmount_DotDecimal(t *testing.T) {
	got, err := ParseAmount("1,234.56")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.Equal(mustDecimal(t, "1234.56")) {
		t.Errorf("Expected 1234.56, got %s", got)
	}
}

func TestParseAmount_TrailingMinus(t *testing.T) {
	got, err := ParseAmount("425.471,35-")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.Equal(mustDecimal(t, "-425471.35")) {
		t.Errorf("Expected -425471.35, got %s", got)
	}
}

func TestParseAmount_LeadingMinus(t *testing.T) {
	got, err := ParseAmount("-150,00")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.Equal(mustDecimal(t, "-150")) {
		t.Errorf("Expected -150, got %s", got)
	}
}

func TestParseAmount_NoIntegerPart(t *testing.T) {
	got, err := ParseAmount(".06")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.Equal(mustDecimal(t, "0.06")) {
		t.Errorf("Expected 0.06, got %s", got)
	}
}

func TestParseAmount_Empty(t *testing.T) {
	got, err := ParseAmount("   ")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Expected zero for blank input, got %s", got)
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	if _, err := ParseAmount("12,34,ab"); err == nil {
		t.Error("Expected error for malformed amount")
	}
}

func TestFindMoneyAmounts_SkipsPercentages(t *testing.T) {
	got := FindMoneyAmounts("PLAN 12 CUOTAS TNA 80,48% 1.234,56 0,00")
	if len(got) != 2 {
		t.Fatalf("Expected 2 amounts, got %d: %v", len(got), got)
	}
	if got[0] != "1.234,56" || got[1] != "0,00" {
		t.Errorf("Unexpected tokens: %v", got)
	}
}

func TestFindNumbers_MixedConventions(t *testing.T) {
	got := FindNumbers("ACREDITAMIENTO 5281 .06 1.500,00")
	if len(got) != 2 {
		t.Fatalf("Expected 2 numbers, got %d: %v", len(got), got)
	}
	if got[0] != ".06" || got[1] != "1.500,00" {
		t.Errorf("Unexpected tokens: %v", got)
	}
}

func TestFirstNumberIndex(t *testing.T) {
	idx := FirstNumberIndex("COMPRA SUPERMERCADO 5281 100,00 900,00")
	if idx != 25 {
		t.Errorf("Expected index 25, got %d", idx)
	}
	if FirstNumberIndex("SIN NUMEROS") != -1 {
		t.Error("Expected -1 for a line without numbers")
	}
}

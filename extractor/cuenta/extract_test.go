package cuenta

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
)

// Synthetic statement text mimicking the savings-account layout: one table
// per currency with running balances in the last column.
func testPages() []string {
	return []string{`RESUMEN DE CUENTA
EXTRACTO DEL 01/01/2024 AL 31/01/2024
CAJA DE AHORRO EN $ NRO 123-45678-9
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 1.000,00
09-ENE COMPRA SUPERMERCADO 5281 100,00 900,00
09-ENE ACREDITAMIENTO DE INTERESES .06 900,06
10-ENE TRANSFERENCIA RECIBIDA 50,00 950,06
SALDO FINAL 950,06`}
}

func parseFixture(t *testing.T, pages []string) *common.Result {
	t.Helper()
	p := New("test_cuenta.pdf", pages, common.Options{})
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return p.Result()
}

func hasCode(result *common.Result, code string) bool {
	for _, w := range result.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestParse_Statement(t *testing.T) {
	result := parseFixture(t, testPages())
	stmt := result.Statement

	if stmt.Kind != common.KindCuenta {
		t.Errorf("Expected kind %s, got %s", common.KindCuenta, stmt.Kind)
	}
	if stmt.PeriodStart != "2024-01-01" || stmt.PeriodEnd != "2024-01-31" {
		t.Errorf("Unexpected period: %q .. %q", stmt.PeriodStart, stmt.PeriodEnd)
	}
	if !stmt.PrevBalanceARS.Valid || !stmt.PrevBalanceARS.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Unexpected opening balance: %+v", stmt.PrevBalanceARS)
	}
	if !stmt.CurrBalanceARS.Valid || !stmt.CurrBalanceARS.Decimal.Equal(decimal.NewFromFloat(950.06)) {
		t.Errorf("Unexpected closing balance: %+v", stmt.CurrBalanceARS)
	}
}

func TestParse_DeltaSigns(t *testing.T) {
	result := parseFixture(t, testPages())

	if len(result.Transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d: %+v", len(result.Transactions), result.Transactions)
	}

	// Signs come from running-balance deltas, not the debit/credit columns.
	want := []string{"-100", "0.06", "50"}
	for i, w := range want {
		if result.Transactions[i].Amount.String() != w {
			t.Errorf("Transaction %d: expected amount %s, got %s", i, w, result.Transactions[i].Amount)
		}
	}
}

func TestParse_RowFields(t *testing.T) {
	result := parseFixture(t, testPages())

	first := result.Transactions[0]
	if first.Date != "2024-01-09" {
		t.Errorf("Expected date 2024-01-09, got %q", first.Date)
	}
	if first.Description != "COMPRA SUPERMERCADO" {
		t.Errorf("Unexpected description: %q", first.Description)
	}
	if first.OperationID != "5281" {
		t.Errorf("Expected operation id 5281, got %q", first.OperationID)
	}
	if first.Currency != common.CurrencyARS {
		t.Errorf("Expected ARS, got %s", first.Currency)
	}

	interes := result.Transactions[1]
	if interes.Description != "ACREDITAMIENTO DE INTERESES" {
		t.Errorf("Unexpected description: %q", interes.Description)
	}
}

func TestParse_CleanStatementHasNoWarnings(t *testing.T) {
	result := parseFixture(t, testPages())

	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %+v", result.Warnings)
	}
}

func TestParse_FinalBalanceMismatch(t *testing.T) {
	result := parseFixture(t, []string{`EXTRACTO DEL 01/01/2024 AL 31/01/2024
CAJA DE AHORRO EN $ NRO 1
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 1.000,00
09-ENE COMPRA GENERAL 100,00 900,00
SALDO FINAL 1.950,06`})

	if !hasCode(result, "BALANCE_FINAL_MISMATCH") {
		t.Fatalf("Expected BALANCE_FINAL_MISMATCH, got %+v", result.Warnings)
	}
	if !hasCode(result, "BALANCE_SUM_MISMATCH") {
		t.Errorf("Expected BALANCE_SUM_MISMATCH, got %+v", result.Warnings)
	}
}

func TestParse_NoPrevBalanceAndContinuation(t *testing.T) {
	result := parseFixture(t, []string{`EXTRACTO DEL 01/02/2024 AL 29/02/2024
CAJA DE AHORRO EN $ NRO 1
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
09-FEB COMPRA ALGO 100,00 900,00
-PAGO PARCIAL 25,00 875,00
SALDO FINAL 875,00`})

	if !hasCode(result, "NO_PREV_BALANCE") {
		t.Fatalf("Expected NO_PREV_BALANCE, got %+v", result.Warnings)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}

	// The first row keeps the token's own sign; no delta is available.
	first := result.Transactions[0]
	if !first.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100, got %s", first.Amount)
	}

	// Continuation rows inherit the previous row's date and use the delta.
	cont := result.Transactions[1]
	if cont.Date != "2024-02-09" {
		t.Errorf("Expected inherited date 2024-02-09, got %q", cont.Date)
	}
	if cont.Description != "PAGO PARCIAL" {
		t.Errorf("Unexpected description: %q", cont.Description)
	}
	if !cont.Amount.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("Expected -25, got %s", cont.Amount)
	}
}

func TestParse_CurrencySections(t *testing.T) {
	result := parseFixture(t, []string{`EXTRACTO DEL 01/01/2024 AL 31/01/2024
CAJA DE AHORRO EN $ NRO 1
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 100,00
05-ENE COMPRA PESOS 50,00 50,00
SALDO FINAL 50,00
CAJA DE AHORRO EN U$S NRO 2
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 200,00
10-ENE EXTRACCION CAJERO 100,00 100,00
SALDO FINAL 100,00`})

	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d: %+v", len(result.Transactions), result.Transactions)
	}
	if result.Transactions[0].Currency != common.CurrencyARS {
		t.Errorf("Expected first transaction in ARS, got %s", result.Transactions[0].Currency)
	}
	if result.Transactions[1].Currency != common.CurrencyUSD {
		t.Errorf("Expected second transaction in USD, got %s", result.Transactions[1].Currency)
	}

	stmt := result.Statement
	if !stmt.PrevBalanceUSD.Valid || !stmt.PrevBalanceUSD.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Unexpected USD opening balance: %+v", stmt.PrevBalanceUSD)
	}
	if !stmt.CurrBalanceUSD.Valid || !stmt.CurrBalanceUSD.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Unexpected USD closing balance: %+v", stmt.CurrBalanceUSD)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %+v", result.Warnings)
	}
}

func TestParse_SectionWarningOrder(t *testing.T) {
	// Both sections fail reconciliation; the warnings must come out in a
	// stable ARS-then-USD order regardless of map iteration.
	result := parseFixture(t, []string{`EXTRACTO DEL 01/01/2024 AL 31/01/2024
CAJA DE AHORRO EN $ NRO 1
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 100,00
05-ENE COMPRA PESOS 50,00 50,00
SALDO FINAL 950,00
CAJA DE AHORRO EN U$S NRO 2
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 200,00
10-ENE EXTRACCION CAJERO 100,00 100,00
SALDO FINAL 900,00`})

	var currencies []string
	for _, w := range result.Warnings {
		if w.Code != "BALANCE_SUM_MISMATCH" {
			continue
		}
		ctx, ok := w.Context.(map[string]any)
		if !ok {
			t.Fatalf("Unexpected context type: %T", w.Context)
		}
		currencies = append(currencies, ctx["currency"].(string))
	}

	if len(currencies) != 2 {
		t.Fatalf("Expected 2 BALANCE_SUM_MISMATCH warnings, got %v: %+v", currencies, result.Warnings)
	}
	if currencies[0] != common.CurrencyARS || currencies[1] != common.CurrencyUSD {
		t.Errorf("Expected ARS before USD, got %v", currencies)
	}
}

func TestParse_NoPeriod(t *testing.T) {
	result := parseFixture(t, []string{`CAJA DE AHORRO EN $ NRO 1
DETALLE DE OPERACIONES
FECHA REFERENCIA NRO DEBITO CREDITO SALDO
SALDO ANTERIOR 100,00
05-ENE COMPRA PESOS 50,00 50,00
SALDO FINAL 50,00`})

	if !hasCode(result, "NO_PERIOD") {
		t.Errorf("Expected NO_PERIOD, got %+v", result.Warnings)
	}
	if !hasCode(result, "MISSING_STATEMENT_FIELD") {
		t.Errorf("Expected MISSING_STATEMENT_FIELD, got %+v", result.Warnings)
	}
	// Without a period there is no default year for DD-Mon dates.
	if result.Transactions[0].Date != "" {
		t.Errorf("Expected empty date, got %q", result.Transactions[0].Date)
	}
}

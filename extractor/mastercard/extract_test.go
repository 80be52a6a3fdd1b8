package mastercard

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
)

// Synthetic statement text mimicking the current Mastercard layout: collapsed
// ARS/USD columns, a person block closed by its TOTAL row and a dateless
// summary adjustment.
func testPages() []string {
	return []string{`ESTADO DE CUENTA MASTERCARD
Cierre Anterior: 05-DIC-23
Estado de cuenta al: 05-ENE-24
SALDO ANTERIOR 1.000,00 0,00
05-DIC-23 MERPAGO*SUPERMERCADO 350001 200,00 0,00
05-DIC-23 ABONANDO EL PAGO MINIMO USTED FINANCIA 1.000,00 0,00
10-DIC-23 OPENAI *CHATGPT (USA,ARS, 4799,99) 4.799,99 0,00
15-DIC-23 NETFLIX.COM C.02/06 123456 -150,00 -0,50
TOTAL TITULAR JUAN PEREZ 4.849,99 -0,50
IMPUESTO DE SELLOS 48,50
SALDO ACTUAL 5.898,49 -0,50`}
}

func parseFixture(t *testing.T, pages []string) *common.Result {
	t.Helper()
	p := New("test_mc.pdf", pages, common.Options{})
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

	if stmt.Kind != common.KindMastercard || stmt.Bank != "HSBC" {
		t.Errorf("Unexpected statement identity: %+v", stmt)
	}
	if stmt.PeriodStart != "2023-12-06" {
		t.Errorf("Expected period start 2023-12-06, got %q", stmt.PeriodStart)
	}
	if stmt.PeriodEnd != "2024-01-05" {
		t.Errorf("Expected period end 2024-01-05, got %q", stmt.PeriodEnd)
	}
	if !stmt.PrevBalanceARS.Valid || !stmt.PrevBalanceARS.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Unexpected previous ARS balance: %+v", stmt.PrevBalanceARS)
	}
	if !stmt.CurrBalanceARS.Valid || !stmt.CurrBalanceARS.Decimal.Equal(decimal.NewFromFloat(5898.49)) {
		t.Errorf("Unexpected current ARS balance: %+v", stmt.CurrBalanceARS)
	}
}

func TestParse_Transactions(t *testing.T) {
	result := parseFixture(t, testPages())

	// Three purchase rows produce four transactions (one has a USD leg),
	// plus the dateless tax adjustment. The commentary row is dropped.
	if len(result.Transactions) != 5 {
		t.Fatalf("Expected 5 transactions, got %d: %+v", len(result.Transactions), result.Transactions)
	}

	first := result.Transactions[0]
	if first.Description != "MERPAGO*SUPERMERCADO" || first.OperationID != "350001" {
		t.Errorf("Unexpected first transaction: %+v", first)
	}
	if !first.Amount.Equal(decimal.NewFromInt(200)) || first.Currency != common.CurrencyARS {
		t.Errorf("Unexpected first amount: %+v", first)
	}
	if first.Date != "2023-12-05" {
		t.Errorf("Expected date 2023-12-05, got %q", first.Date)
	}
}

func TestParse_ParenCurrencyHintIgnored(t *testing.T) {
	result := parseFixture(t, testPages())

	tx := result.Transactions[1]
	if tx.Description != "OPENAI *CHATGPT" {
		t.Errorf("Expected hint stripped from description, got %q", tx.Description)
	}
	// The column amount wins over the parenthetical original-currency one.
	if !tx.Amount.Equal(decimal.NewFromFloat(4799.99)) {
		t.Errorf("Expected 4799.99, got %s", tx.Amount)
	}
}

func TestParse_DualCurrencyRow(t *testing.T) {
	result := parseFixture(t, testPages())

	ars := result.Transactions[2]
	usd := result.Transactions[3]
	if ars.Currency != common.CurrencyARS || !ars.Amount.Equal(decimal.NewFromInt(-150)) {
		t.Errorf("Unexpected ARS leg: %+v", ars)
	}
	if usd.Currency != common.CurrencyUSD || !usd.Amount.Equal(decimal.NewFromFloat(-0.5)) {
		t.Errorf("Unexpected USD leg: %+v", usd)
	}
	if ars.InstallmentNum != 2 || ars.InstallmentTotal != 6 {
		t.Errorf("Expected installments 2/6, got %d/%d", ars.InstallmentNum, ars.InstallmentTotal)
	}
	if ars.OperationID != "123456" {
		t.Errorf("Expected operation id 123456, got %q", ars.OperationID)
	}
}

func TestParse_PersonBackfill(t *testing.T) {
	result := parseFixture(t, testPages())

	for i := 0; i < 4; i++ {
		if result.Transactions[i].Person != "JUAN PEREZ" {
			t.Errorf("Transaction %d: expected person JUAN PEREZ, got %q", i, result.Transactions[i].Person)
		}
	}
	// The adjustment came after the TOTAL row, so it belongs to the holder.
	if result.Transactions[4].Person != common.PersonTitular {
		t.Errorf("Expected adjustment attributed to %s, got %q", common.PersonTitular, result.Transactions[4].Person)
	}
}

func TestParse_SummaryAdjustment(t *testing.T) {
	result := parseFixture(t, testPages())

	adj := result.Transactions[4]
	if adj.Description != "IMPUESTO DE SELLOS" {
		t.Errorf("Unexpected adjustment description: %q", adj.Description)
	}
	if !adj.Amount.Equal(decimal.NewFromFloat(48.5)) {
		t.Errorf("Expected 48.50, got %s", adj.Amount)
	}
	// Dateless rows inherit the last transaction date.
	if adj.Date != "2023-12-15" {
		t.Errorf("Expected inherited date 2023-12-15, got %q", adj.Date)
	}
}

func TestParse_CleanStatementHasNoWarnings(t *testing.T) {
	result := parseFixture(t, testPages())

	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %+v", result.Warnings)
	}
}

func TestParse_TwoLineRefund(t *testing.T) {
	result := parseFixture(t, []string{`Estado de cuenta al: 05-ENE-24
Cierre Anterior: 05-DIC-23
SALDO ANTERIOR 100,00 0,00
05-DIC-23 COMPRA LOCAL 200,00 0,00
TOTAL TITULAR JUAN PEREZ 200,00 0,00
DEV IMP DE SELLOS
50,00-
SALDO ACTUAL 250,00 0,00`})

	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}
	dev := result.Transactions[1]
	if dev.Description != "DEV IMP DE SELLOS" {
		t.Errorf("Unexpected refund description: %q", dev.Description)
	}
	if !dev.Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected -50, got %s", dev.Amount)
	}
	if hasCode(result, "BALANCE_SUM_MISMATCH") {
		t.Errorf("Statement should reconcile, got %+v", result.Warnings)
	}
}

func TestParse_MissingPersonTotalAtEOF(t *testing.T) {
	result := parseFixture(t, []string{`Estado de cuenta al: 05-ENE-24
SALDO ANTERIOR 0,00 0,00
05-DIC-23 COMPRA UNO 100,00 0,00
06-DIC-23 COMPRA DOS 50,00 0,00
SALDO ACTUAL 150,00 0,00`})

	if !hasCode(result, "MISSING_PERSON_TOTAL_AT_EOF") {
		t.Fatalf("Expected MISSING_PERSON_TOTAL_AT_EOF, got %+v", result.Warnings)
	}
	for _, tx := range result.Transactions {
		if tx.Person != common.PersonTitular {
			t.Errorf("Expected fallback person %s, got %q", common.PersonTitular, tx.Person)
		}
	}
}

func TestParse_TailSuppressed(t *testing.T) {
	result := parseFixture(t, []string{`Estado de cuenta al: 05-ENE-24
SALDO ANTERIOR 0,00 0,00
05-DIC-23 COMPRA UNO 100,00 0,00
CONDICIONES GENERALES
05-DIC-23 TASA LEGAL APLICABLE 999,99 0,00
TOTAL TITULAR ANA GOMEZ 100,00 0,00
SALDO ACTUAL 100,00 0,00`})

	if len(result.Transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d: %+v", len(result.Transactions), result.Transactions)
	}
	// TOTAL rows still close blocks inside the tail.
	if result.Transactions[0].Person != "ANA GOMEZ" {
		t.Errorf("Expected person ANA GOMEZ, got %q", result.Transactions[0].Person)
	}
	if hasCode(result, "BALANCE_SUM_MISMATCH") {
		t.Errorf("Tail rows must not affect reconciliation: %+v", result.Warnings)
	}
}

func TestParse_PersonTotalMismatch(t *testing.T) {
	result := parseFixture(t, []string{`Estado de cuenta al: 05-ENE-24
SALDO ANTERIOR 0,00 0,00
05-DIC-23 COMPRA UNO 100,00 0,00
TOTAL TITULAR JUAN PEREZ 500,00 0,00
SALDO ACTUAL 100,00 0,00`})

	if !hasCode(result, "PERSON_TOTAL_MISMATCH") {
		t.Fatalf("Expected PERSON_TOTAL_MISMATCH, got %+v", result.Warnings)
	}
}

func TestParse_NoTransactions(t *testing.T) {
	result := parseFixture(t, []string{`Estado de cuenta al: 05-ENE-24
SALDO ANTERIOR 0,00 0,00
SALDO ACTUAL 0,00 0,00`})

	if !hasCode(result, "NO_TRANSACTIONS") {
		t.Fatalf("Expected NO_TRANSACTIONS, got %+v", result.Warnings)
	}
}

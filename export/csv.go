// Package export writes completed parse results to columnar files: one row
// per statement, per transaction and per warning.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
)

var statementHeader = []string{
	"source", "bank", "kind", "period_start", "period_end",
	"prev_balance_ars", "prev_balance_usd", "curr_balance_ars", "curr_balance_usd",
}

var transactionHeader = []string{
	"source", "date", "description", "currency", "amount", "person", "kind",
	"operation_id", "installment_num", "installment_total",
}

var warningHeader = []string{"source", "level", "code", "message", "context"}

// WriteCSV produces statements.csv, transactions.csv and warnings.csv in
// outDir. Every field is quoted unconditionally so downstream columnar
// loaders never have to guess.
func WriteCSV(results []*common.Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var statements, transactions, warnings [][]string
	for _, r := range results {
		statements = append(statements, statementRow(r.Statement))
		for _, t := range r.Transactions {
			transactions = append(transactions, transactionRow(t))
		}
		for _, w := range r.Warnings {
			warnings = append(warnings, warningRow(w))
		}
	}

	if err := writeFile(filepath.Join(outDir, "statements.csv"), statementHeader, statements); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, "transactions.csv"), transactionHeader, transactions); err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, "warnings.csv"), warningHeader, warnings)
}

func statementRow(s common.Statement) []string {
	return []string{
		s.Source, s.Bank, s.Kind, s.PeriodStart, s.PeriodEnd,
		nullDecimalField(s.PrevBalanceARS), nullDecimalField(s.PrevBalanceUSD),
		nullDecimalField(s.CurrBalanceARS), nullDecimalField(s.CurrBalanceUSD),
	}
}

func transactionRow(t common.Transaction) []string {
	instNum, instTotal := "", ""
	if t.InstallmentTotal > 0 {
		instNum = strconv.Itoa(t.InstallmentNum)
		instTotal = strconv.Itoa(t.InstallmentTotal)
	}
	return []string{
		t.Source, t.Date, t.Description, t.Currency, t.Amount.String(),
		t.Person, t.Kind, t.OperationID, instNum, instTotal,
	}
}

func warningRow(w common.Warning) []string {
	return []string{w.Source, w.Level, w.Code, w.Message, ContextText(w.Context)}
}

// ContextText flattens a warning context to a stable textual form. Mappings
// and sequences become JSON; scalars keep their plain representation. The
// engine never serializes contexts itself — this boundary does.
func ContextText(ctx any) string {
	switch v := ctx.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func nullDecimalField(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeRow(w, header)
	for _, row := range rows {
		writeRow(w, row)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

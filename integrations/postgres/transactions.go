package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nahuelc/resumen/extractor/common"
)

// CreateTransactions bulk-inserts the transactions of a statement, preserving
// extraction order via the sequence column. Rows whose date could not be
// determined are stored with a NULL date.
func (db *DB) CreateTransactions(ctx context.Context, statementID string, transactions []common.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, tx := range transactions {
		batch.Queue(`
			INSERT INTO transactions (
				statement_id, sequence, date, description, currency, amount,
				person, kind, operation_id, installment_num, installment_total
			) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			statementID, i, nullDate(tx.Date), tx.Description, tx.Currency, tx.Amount,
			tx.Person, tx.Kind, tx.OperationID,
			nullInstallment(tx.InstallmentNum), nullInstallment(tx.InstallmentTotal),
		)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transactions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	return nil
}

// CreateWarnings bulk-inserts the warnings of a statement. Contexts are
// stored as JSONB so query tools can filter on their fields.
func (db *DB) CreateWarnings(ctx context.Context, statementID string, warnings []common.Warning) error {
	if len(warnings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, w := range warnings {
		ctxJSON, err := json.Marshal(w.Context)
		if err != nil {
			ctxJSON = []byte("null")
		}
		batch.Queue(`
			INSERT INTO warnings (statement_id, level, code, message, context)
			VALUES ($1, $2, $3, $4, $5)
		`, statementID, w.Level, w.Code, w.Message, ctxJSON)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range warnings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	return nil
}

// nullInstallment maps "no installment marker" (zero) to SQL NULL.
func nullInstallment(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nahuelc/resumen/extractor/common"
)

// StatementExists checks whether a statement is already stored, using the
// natural key (source, kind).
func (db *DB) StatementExists(ctx context.Context, source, kind string) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM statements
		WHERE source = $1 AND kind = $2
	`, source, kind).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("check statement: %w", err)
	}

	return true, id, nil
}

// CreateStatement inserts a statement row and returns its id. Empty period
// dates and absent balances become NULL.
func (db *DB) CreateStatement(ctx context.Context, stmt common.Statement) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO statements (
			source, bank, kind, period_start, period_end,
			prev_balance_ars, prev_balance_usd,
			curr_balance_ars, curr_balance_usd
		) VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9)
		RETURNING id
	`,
		stmt.Source, stmt.Bank, stmt.Kind,
		nullDate(stmt.PeriodStart), nullDate(stmt.PeriodEnd),
		stmt.PrevBalanceARS, stmt.PrevBalanceUSD,
		stmt.CurrBalanceARS, stmt.CurrBalanceUSD,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("create statement: %w", err)
	}

	return id, nil
}

// DeleteStatement removes a statement. Its transactions and warnings go with
// it via ON DELETE CASCADE.
func (db *DB) DeleteStatement(ctx context.Context, statementID string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM statements WHERE id = $1`, statementID); err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	return nil
}

// nullDate maps the engine's empty-string "unknown date" to SQL NULL.
func nullDate(iso string) any {
	if iso == "" {
		return nil
	}
	return iso
}

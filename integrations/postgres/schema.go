package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Statements table with natural key (source, kind)
CREATE TABLE IF NOT EXISTS statements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    source VARCHAR(255) NOT NULL,
    bank VARCHAR(50) NOT NULL,
    kind VARCHAR(20) NOT NULL,
    period_start DATE,
    period_end DATE,
    prev_balance_ars NUMERIC(18,2),
    prev_balance_usd NUMERIC(18,2),
    curr_balance_ars NUMERIC(18,2),
    curr_balance_usd NUMERIC(18,2),
    created_at TIMESTAMPTZ DEFAULT NOW(),

    -- Natural key for deduplication
    UNIQUE(source, kind)
);

-- Transactions table
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    date DATE,
    description TEXT NOT NULL,
    currency VARCHAR(3) NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    person VARCHAR(255) NOT NULL DEFAULT '',
    kind VARCHAR(20) NOT NULL,
    operation_id VARCHAR(20) DEFAULT '',
    installment_num INTEGER,
    installment_total INTEGER,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    -- Prevent duplicate transactions within a statement
    UNIQUE(statement_id, sequence)
);

-- Warnings table
CREATE TABLE IF NOT EXISTS warnings (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    level VARCHAR(10) NOT NULL,
    code VARCHAR(50) NOT NULL,
    message TEXT NOT NULL,
    context JSONB DEFAULT 'null',
    created_at TIMESTAMPTZ DEFAULT NOW()
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_statements_period_end ON statements(period_end);
CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions(statement_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_currency ON transactions(currency);
CREATE INDEX IF NOT EXISTS idx_warnings_statement_id ON warnings(statement_id);
CREATE INDEX IF NOT EXISTS idx_warnings_code ON warnings(code);
`

// EnsureSchema creates the tables and indexes if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

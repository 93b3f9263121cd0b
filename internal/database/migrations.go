package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// schemaStatements are applied in order on startup. Every statement is
// idempotent so repeated startups are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS company_facts (
		id BIGSERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		date DATE NOT NULL,
		fiscal_year INTEGER NOT NULL,
		revenue NUMERIC,
		cost NUMERIC,
		ebitda NUMERIC,
		eps NUMERIC,
		price NUMERIC,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_company_facts_symbol_fiscal_year
		ON company_facts (symbol, fiscal_year)`,
	`CREATE TABLE IF NOT EXISTS macro_facts (
		id BIGSERIAL PRIMARY KEY,
		series_id TEXT NOT NULL,
		date DATE NOT NULL,
		value NUMERIC NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_macro_facts_series_id_date
		ON macro_facts (series_id, date)`,
}

// Migrate creates the fact tables and indexes if they do not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	logrus.Info("Database schema is up to date")
	return nil
}

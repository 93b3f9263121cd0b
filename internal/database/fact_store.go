package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/finlens/macrobeta-go/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// Begin starts a transaction.
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FactStore handles database operations for company and macro fact tables.
type FactStore struct {
	pool DatabasePool
}

// NewFactStore creates a new fact store.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*FactStore: The initialized store.
func NewFactStore(pool DatabasePool) *FactStore {
	return &FactStore{
		pool: pool,
	}
}

const companyFactColumns = "id, symbol, date, fiscal_year, revenue, cost, ebitda, eps, price, created_at"

// GetCompanyFacts returns the stored facts for a symbol restricted to its
// maxYears most recent fiscal years. Duplicate rows per fiscal year are
// preserved; the merge engine resolves them.
//
// Parameters:
//
//	ctx: Context.
//	symbol: Company ticker symbol.
//	maxYears: Maximum number of distinct fiscal years to return.
//
// Returns:
//
//	[]models.CompanyFact: Facts ordered by fiscal year descending.
//	error: Error if retrieval fails.
func (s *FactStore) GetCompanyFacts(ctx context.Context, symbol string, maxYears int) ([]models.CompanyFact, error) {
	query := `
		SELECT ` + companyFactColumns + `
		FROM company_facts
		WHERE symbol = $1
		AND fiscal_year IN (
			SELECT DISTINCT fiscal_year FROM company_facts
			WHERE symbol = $1
			ORDER BY fiscal_year DESC
			LIMIT $2
		)
		ORDER BY fiscal_year DESC, date DESC
	`

	rows, err := s.pool.Query(ctx, query, symbol, maxYears)
	if err != nil {
		return nil, fmt.Errorf("failed to get company facts for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanCompanyFacts(rows)
}

// ListCompanyFacts returns every stored fact for a symbol ordered by
// observation date descending, for display purposes.
//
// Parameters:
//
//	ctx: Context.
//	symbol: Company ticker symbol.
//
// Returns:
//
//	[]models.CompanyFact: Facts ordered by date descending.
//	error: Error if retrieval fails.
func (s *FactStore) ListCompanyFacts(ctx context.Context, symbol string) ([]models.CompanyFact, error) {
	query := `
		SELECT ` + companyFactColumns + `
		FROM company_facts
		WHERE symbol = $1
		ORDER BY date DESC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to list company facts for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanCompanyFacts(rows)
}

func scanCompanyFacts(rows pgx.Rows) ([]models.CompanyFact, error) {
	var facts []models.CompanyFact
	for rows.Next() {
		var fact models.CompanyFact
		err := rows.Scan(
			&fact.ID,
			&fact.Symbol,
			&fact.Date,
			&fact.FiscalYear,
			&fact.Revenue,
			&fact.Cost,
			&fact.Ebitda,
			&fact.Eps,
			&fact.Price,
			&fact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company fact: %w", err)
		}
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company facts: %w", err)
	}

	return facts, nil
}

// GetMacroObservations returns the observations of a macro series within the
// inclusive date range, ordered by date ascending.
//
// Parameters:
//
//	ctx: Context.
//	seriesID: Macro series identifier.
//	from: Range start (inclusive).
//	to: Range end (inclusive).
//
// Returns:
//
//	[]models.MacroObservation: Observations ordered by date ascending.
//	error: Error if retrieval fails.
func (s *FactStore) GetMacroObservations(ctx context.Context, seriesID string, from, to time.Time) ([]models.MacroObservation, error) {
	query := `
		SELECT id, series_id, date, value, created_at
		FROM macro_facts
		WHERE series_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get macro observations for %s: %w", seriesID, err)
	}
	defer rows.Close()

	return scanMacroObservations(rows)
}

// GetRecentMacroObservations returns the most recent observations of a macro
// series, newest first.
//
// Parameters:
//
//	ctx: Context.
//	seriesID: Macro series identifier.
//	limit: Maximum number of observations.
//
// Returns:
//
//	[]models.MacroObservation: Observations ordered by date descending.
//	error: Error if retrieval fails.
func (s *FactStore) GetRecentMacroObservations(ctx context.Context, seriesID string, limit int) ([]models.MacroObservation, error) {
	query := `
		SELECT id, series_id, date, value, created_at
		FROM macro_facts
		WHERE series_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, seriesID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent macro observations for %s: %w", seriesID, err)
	}
	defer rows.Close()

	return scanMacroObservations(rows)
}

func scanMacroObservations(rows pgx.Rows) ([]models.MacroObservation, error) {
	var observations []models.MacroObservation
	for rows.Next() {
		var obs models.MacroObservation
		err := rows.Scan(
			&obs.ID,
			&obs.SeriesID,
			&obs.Date,
			&obs.Value,
			&obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan macro observation: %w", err)
		}
		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating macro observations: %w", err)
	}

	return observations, nil
}

// HasMacroSeries checks whether any observations are stored for a series.
//
// Parameters:
//
//	ctx: Context.
//	seriesID: Macro series identifier.
//
// Returns:
//
//	bool: True if at least one observation exists.
//	error: Error if the check fails.
func (s *FactStore) HasMacroSeries(ctx context.Context, seriesID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM macro_facts WHERE series_id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, seriesID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check macro series %s: %w", seriesID, err)
	}

	return exists, nil
}

// CountMacroObservations returns the number of stored observations for a
// series.
//
// Parameters:
//
//	ctx: Context.
//	seriesID: Macro series identifier.
//
// Returns:
//
//	int64: Observation count.
//	error: Error if the count fails.
func (s *FactStore) CountMacroObservations(ctx context.Context, seriesID string) (int64, error) {
	query := `SELECT COUNT(*) FROM macro_facts WHERE series_id = $1`

	var count int64
	if err := s.pool.QueryRow(ctx, query, seriesID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count macro observations for %s: %w", seriesID, err)
	}

	return count, nil
}

// ReplaceCompanyFacts atomically replaces the stored facts for a symbol.
// The symbol's existing rows are deleted and the new batch inserted within
// a single transaction, so concurrent readers never observe a partial set.
//
// Parameters:
//
//	ctx: Context.
//	symbol: Company ticker symbol.
//	facts: Replacement facts.
//
// Returns:
//
//	int64: Number of facts inserted.
//	error: Error if the transaction fails.
func (s *FactStore) ReplaceCompanyFacts(ctx context.Context, symbol string, facts []models.CompanyFact) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM company_facts WHERE symbol = $1`, symbol); err != nil {
		return 0, fmt.Errorf("failed to clear company facts for %s: %w", symbol, err)
	}

	insertSQL := `
		INSERT INTO company_facts (symbol, date, fiscal_year, revenue, cost, ebitda, eps, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, fact := range facts {
		_, err := tx.Exec(ctx, insertSQL,
			fact.Symbol,
			fact.Date,
			fact.FiscalYear,
			fact.Revenue,
			fact.Cost,
			fact.Ebitda,
			fact.Eps,
			fact.Price,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert company fact for %s fiscal year %d: %w",
				fact.Symbol, fact.FiscalYear, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit company facts for %s: %w", symbol, err)
	}

	return int64(len(facts)), nil
}

// InsertMacroObservations bulk-inserts observations for a series using the
// COPY protocol inside a single transaction.
//
// Parameters:
//
//	ctx: Context.
//	seriesID: Macro series identifier.
//	observations: Observations to insert.
//
// Returns:
//
//	int64: Number of rows copied.
//	error: Error if the insert fails.
func (s *FactStore) InsertMacroObservations(ctx context.Context, seriesID string, observations []models.MacroObservation) (int64, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	copyRows := make([][]interface{}, 0, len(observations))
	for _, obs := range observations {
		// COPY requires binary encoding, which shopspring decimals do not
		// provide without a registered codec; go through pgtype.Numeric.
		var value pgtype.Numeric
		if err := value.Scan(obs.Value.String()); err != nil {
			return 0, fmt.Errorf("failed to encode macro value for %s at %s: %w",
				seriesID, obs.Date.Format("2006-01-02"), err)
		}
		copyRows = append(copyRows, []interface{}{seriesID, obs.Date, value})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"macro_facts"},
		[]string{"series_id", "date", "value"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy macro observations for %s: %w", seriesID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit macro observations for %s: %w", seriesID, err)
	}

	return copied, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company KPI column names recognized by the merge engine.
const (
	KpiRevenue = "revenue"
	KpiCost    = "cost"
	KpiEbitda  = "ebitda"
	KpiEps     = "eps"
	KpiPrice   = "price"
)

// KnownKpis returns the fixed set of KPI columns, in canonical order.
func KnownKpis() []string {
	return []string{KpiRevenue, KpiCost, KpiEbitda, KpiEps, KpiPrice}
}

// IsKnownKpi reports whether name is a recognized KPI column.
func IsKnownKpi(name string) bool {
	switch name {
	case KpiRevenue, KpiCost, KpiEbitda, KpiEps, KpiPrice:
		return true
	}
	return false
}

// CompanyFact represents one fiscal period of company financials.
// Facts are immutable once ingested; re-ingesting a symbol replaces its
// full set in a single transaction.
type CompanyFact struct {
	ID         int64               `json:"id" db:"id"`
	Symbol     string              `json:"symbol" db:"symbol"`
	Date       time.Time           `json:"date" db:"date"`
	FiscalYear int                 `json:"fiscal_year" db:"fiscal_year"`
	Revenue    decimal.NullDecimal `json:"revenue" db:"revenue"`
	Cost       decimal.NullDecimal `json:"cost" db:"cost"`
	Ebitda     decimal.NullDecimal `json:"ebitda" db:"ebitda"`
	Eps        decimal.NullDecimal `json:"eps" db:"eps"`
	Price      decimal.NullDecimal `json:"price" db:"price"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
}

// KpiValue returns the named KPI column of the fact. The second return is
// false when the column is null or the name is not a recognized KPI.
func (f *CompanyFact) KpiValue(name string) (decimal.Decimal, bool) {
	var v decimal.NullDecimal
	switch name {
	case KpiRevenue:
		v = f.Revenue
	case KpiCost:
		v = f.Cost
	case KpiEbitda:
		v = f.Ebitda
	case KpiEps:
		v = f.Eps
	case KpiPrice:
		v = f.Price
	default:
		return decimal.Decimal{}, false
	}
	if !v.Valid {
		return decimal.Decimal{}, false
	}
	return v.Decimal, true
}

// MacroObservation is a single dated value of a macroeconomic series.
// Observations are append-only and never updated in place.
type MacroObservation struct {
	ID        int64           `json:"id" db:"id"`
	SeriesID  string          `json:"series_id" db:"series_id"`
	Date      time.Time       `json:"date" db:"date"`
	Value     decimal.Decimal `json:"value" db:"value"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

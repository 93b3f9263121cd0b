package models

import (
	"github.com/shopspring/decimal"
)

// MergedRow is one fiscal year of the aligned company/macro table built by
// the merge engine. A nil pointer means the value is missing for that year.
// Rows are derived per request and never persisted.
type MergedRow struct {
	FiscalYear int                 `json:"fiscal_year"`
	Symbol     string              `json:"symbol"`
	Kpis       map[string]*float64 `json:"kpis"`
	Macros     map[string]*float64 `json:"macros"`
}

// RegressionResult holds the output of a single-predictor OLS fit
// y = alpha + beta*x, plus descriptive statistics of the complete-row
// subset the fit ran on. Standard deviations are sample (n-1).
type RegressionResult struct {
	Beta          float64 `json:"beta"`
	R2            float64 `json:"r2"`
	PValue        float64 `json:"p_value"`
	NObservations int     `json:"n_observations"`
	YMean         float64 `json:"y_mean"`
	XMean         float64 `json:"x_mean"`
	YStd          float64 `json:"y_std"`
	XStd          float64 `json:"x_std"`
}

// Interpretation labels. Values are part of the API contract.
const (
	SignificanceSignificant    = "Significant"
	SignificanceNotSignificant = "Not significant"

	DirectionPositive = "Positive"
	DirectionNegative = "Negative"

	StrengthWeak     = "Weak"
	StrengthModerate = "Moderate"
	StrengthStrong   = "Strong"

	VarianceLow      = "Low"
	VarianceModerate = "Moderate"
	VarianceHigh     = "High"
)

// Interpretation is the qualitative reading of a regression result.
type Interpretation struct {
	Significance      string   `json:"significance"`
	Direction         string   `json:"direction"`
	Strength          string   `json:"strength"`
	ExplainedVariance string   `json:"explained_variance"`
	Insights          []string `json:"insights"`
}

// BetaAnalysis is the full response of a beta computation.
type BetaAnalysis struct {
	Symbol        string `json:"symbol"`
	Kpi           string `json:"kpi"`
	MacroVariable string `json:"macro_variable"`
	Years         int    `json:"years"`
	RegressionResult
	Interpretation Interpretation `json:"interpretation"`
}

// RevenueTrend is the fiscal-year revenue history of a symbol with its
// compound annual growth rate. Smoothed holds a simple moving average of
// the revenue values and is omitted when there are fewer points than the
// smoothing window.
type RevenueTrend struct {
	Symbol   string            `json:"symbol"`
	Years    []int             `json:"years"`
	Revenue  []decimal.Decimal `json:"revenue"`
	Smoothed []float64         `json:"smoothed_revenue,omitempty"`
	Cagr     float64           `json:"cagr"`
	Message  string            `json:"message"`
}

// Scenario names returned by the scenario matrix.
const (
	ScenarioBase      = "base"
	ScenarioInflation = "+inf"
	ScenarioRate      = "+rate"
	ScenarioBoth      = "+both"
)

// ScenarioResult is one row of the scenario matrix.
type ScenarioResult struct {
	Scenario  string          `json:"scenario"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

// InterestShockResult compares net margin before and after a rate shock.
type InterestShockResult struct {
	Symbol      string          `json:"symbol"`
	RateDelta   float64         `json:"rate_delta"`
	BaseMargin  decimal.Decimal `json:"base_margin"`
	ShockMargin decimal.Decimal `json:"shock_margin"`
	DeltaMargin decimal.Decimal `json:"delta_margin"`
}

// Levers are the macro assumptions used by scenario arithmetic and the
// upload analyzer. Rates are decimals, not percentages (0.05 = 5%).
type Levers struct {
	InterestRate float64 `json:"interest_rate"`
	FxRate       float64 `json:"fx_rate"`
	Inflation    float64 `json:"inflation"`
	WageGrowth   float64 `json:"wage_growth"`
}

// DateRange bounds a set of dated records, dates formatted 2006-01-02.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// CompanyIngestResult reports a company fact ingestion run.
type CompanyIngestResult struct {
	Symbol          string     `json:"symbol"`
	Message         string     `json:"message"`
	RecordsInserted int        `json:"records_inserted"`
	Frequency       string     `json:"frequency"`
	YearsRequested  int        `json:"years_requested"`
	YearsActual     int        `json:"years_actual"`
	DateRange       *DateRange `json:"date_range,omitempty"`
	FiscalYears     []int      `json:"fiscal_years,omitempty"`
	BatchID         string     `json:"batch_id,omitempty"`
}

// MacroIngestResult reports a macro series ingestion run. Ingestion for a
// series that already has stored observations is skipped, with the
// existing row count reported.
type MacroIngestResult struct {
	SeriesID        string `json:"series_id"`
	Message         string `json:"message"`
	Inserted        int    `json:"inserted"`
	ExistingRecords int    `json:"existing_records,omitempty"`
	BatchID         string `json:"batch_id,omitempty"`
}

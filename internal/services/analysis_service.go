package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/telemetry"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// FactReader is the store surface the analysis layer reads from.
type FactReader interface {
	GetCompanyFacts(ctx context.Context, symbol string, maxYears int) ([]models.CompanyFact, error)
	GetMacroObservations(ctx context.Context, seriesID string, from, to time.Time) ([]models.MacroObservation, error)
	HasMacroSeries(ctx context.Context, seriesID string) (bool, error)
}

// AnalysisService computes the sensitivity of company KPIs to macro
// variables over aligned fiscal years.
type AnalysisService struct {
	store  FactReader
	merger *MergeEngine
	tracer *telemetry.BusinessTracer
	logger *logrus.Logger
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(store FactReader, merger *MergeEngine, logger *logrus.Logger) *AnalysisService {
	return &AnalysisService{
		store:  store,
		merger: merger,
		tracer: telemetry.NewBusinessTracer(),
		logger: logger,
	}
}

// ComputeBeta regresses a company KPI on a macro series across the requested
// number of fiscal years and interprets the fit.
func (s *AnalysisService) ComputeBeta(ctx context.Context, symbol, kpi, macroSeriesID string, years int) (*models.BetaAnalysis, error) {
	ctx, span := s.tracer.TraceBetaComputation(ctx, symbol, kpi, macroSeriesID)
	defer span.End()

	if !models.IsKnownKpi(kpi) {
		return nil, utils.NewUnknownKpiError(kpi, models.KnownKpis())
	}

	facts, err := s.store.GetCompanyFacts(ctx, symbol, years)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, utils.NewNoDataErrorf("no stored facts for symbol %s", symbol)
	}

	known, err := s.store.HasMacroSeries(ctx, macroSeriesID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, utils.NewUnknownSeriesError(macroSeriesID)
	}

	minYear, maxYear := fiscalYearRange(facts)
	from := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(maxYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	observations, err := s.store.GetMacroObservations(ctx, macroSeriesID, from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.merger.Merge(facts, []string{kpi}, map[string][]Observation{
		macroSeriesID: toObservations(observations),
	}, years, SortAscending)
	if err != nil {
		return nil, err
	}

	points := make([]RegressionPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, RegressionPoint{
			X: row.Macros[macroSeriesID],
			Y: row.Kpis[kpi],
		})
	}

	result, err := FitBeta(points)
	if err != nil {
		return nil, err
	}
	s.tracer.RecordRegressionOutcome(span, result.Beta, result.R2, result.PValue, result.NObservations)

	s.logger.WithFields(logrus.Fields{
		"symbol":       symbol,
		"kpi":          kpi,
		"macro":        macroSeriesID,
		"observations": result.NObservations,
		"beta":         result.Beta,
	}).Info("Computed beta analysis")

	return &models.BetaAnalysis{
		Symbol:           symbol,
		Kpi:              kpi,
		MacroVariable:    macroSeriesID,
		Years:            years,
		RegressionResult: *result,
		Interpretation:   Interpret(result.Beta, result.PValue, result.R2),
	}, nil
}

// fiscalYearRange returns the min and max fiscal year across the facts.
func fiscalYearRange(facts []models.CompanyFact) (int, int) {
	minYear := facts[0].FiscalYear
	maxYear := facts[0].FiscalYear
	for _, fact := range facts[1:] {
		if fact.FiscalYear < minYear {
			minYear = fact.FiscalYear
		}
		if fact.FiscalYear > maxYear {
			maxYear = fact.FiscalYear
		}
	}
	return minYear, maxYear
}

// toObservations converts stored macro records into resampler observations.
func toObservations(records []models.MacroObservation) []Observation {
	observations := make([]Observation, 0, len(records))
	for _, record := range records {
		observations = append(observations, Observation{
			Date:  record.Date,
			Value: record.Value.InexactFloat64(),
		})
	}
	return observations
}

package services

import (
	"context"
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

const defaultSmoothingWindow = 3

// TrendService reports fiscal-year revenue histories with growth statistics.
type TrendService struct {
	store           FactReader
	merger          *MergeEngine
	smoothingWindow int
	logger          *logrus.Logger
}

// NewTrendService creates a new trend service. smoothingWindow sets the
// simple moving average period applied to the revenue series.
func NewTrendService(store FactReader, merger *MergeEngine, smoothingWindow int, logger *logrus.Logger) *TrendService {
	if smoothingWindow <= 0 {
		smoothingWindow = defaultSmoothingWindow
	}
	return &TrendService{
		store:           store,
		merger:          merger,
		smoothingWindow: smoothingWindow,
		logger:          logger,
	}
}

// RevenueTrend returns the chronological fiscal-year revenue series of a
// symbol with its compound annual growth rate and a smoothed view.
func (s *TrendService) RevenueTrend(ctx context.Context, symbol string, maxYears int) (*models.RevenueTrend, error) {
	facts, err := s.store.GetCompanyFacts(ctx, symbol, maxYears)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, utils.NewNoDataErrorf("no stored facts for symbol %s", symbol)
	}

	rows, err := s.merger.Merge(facts, []string{models.KpiRevenue}, nil, maxYears, SortAscending)
	if err != nil {
		return nil, err
	}

	years := make([]int, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		value := row.Kpis[models.KpiRevenue]
		if value == nil {
			continue
		}
		years = append(years, row.FiscalYear)
		values = append(values, *value)
	}
	if len(years) == 0 {
		return nil, utils.NewInsufficientDataErrorf("no revenue observations for symbol %s", symbol)
	}

	revenue := make([]decimal.Decimal, 0, len(values))
	for _, value := range values {
		revenue = append(revenue, decimal.NewFromFloat(value))
	}

	result := &models.RevenueTrend{
		Symbol:  symbol,
		Years:   years,
		Revenue: revenue,
		Cagr:    compoundAnnualGrowthRate(values),
		Message: fmt.Sprintf("Revenue trend for %s across %d fiscal years", symbol, len(years)),
	}

	if len(values) >= s.smoothingWindow {
		result.Smoothed = s.smooth(values)
	}

	s.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"years":  len(years),
		"cagr":   result.Cagr,
	}).Info("Computed revenue trend")

	return result, nil
}

// smooth applies a simple moving average over the values. The output has
// len(values)-window+1 points, each aligned with the end of its window.
func (s *TrendService) smooth(values []float64) []float64 {
	sma := trend.NewSmaWithPeriod[float64](s.smoothingWindow)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}

// compoundAnnualGrowthRate computes CAGR over a chronological value series.
// It is defined only for at least two values with a positive starting point;
// anything else yields zero.
func compoundAnnualGrowthRate(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	first := values[0]
	last := values[n-1]
	if first <= 0 || last < 0 {
		return 0
	}
	return math.Pow(last/first, 1/float64(n-1)) - 1
}

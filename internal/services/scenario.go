package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// LeverSource supplies the macro lever values scenario arithmetic runs on.
type LeverSource interface {
	Auto(ctx context.Context) models.Levers
}

// ScenarioService prices simple what-if scenarios on a company's latest
// fiscal year, applying macro levers to the cost side.
type ScenarioService struct {
	store  FactReader
	merger *MergeEngine
	levers LeverSource
	logger *logrus.Logger
}

// NewScenarioService creates a new scenario service.
func NewScenarioService(store FactReader, merger *MergeEngine, levers LeverSource, logger *logrus.Logger) *ScenarioService {
	return &ScenarioService{
		store:  store,
		merger: merger,
		levers: levers,
		logger: logger,
	}
}

// Matrix prices the company's latest fiscal year under the base case and
// under inflated cost assumptions. Scenarios stress the cost side, so the
// base case carries the highest net profit whenever costs are positive.
func (s *ScenarioService) Matrix(ctx context.Context, symbol string) ([]models.ScenarioResult, error) {
	revenue, cost, err := s.latestRevenueCost(ctx, symbol)
	if err != nil {
		return nil, err
	}

	levers := s.levers.Auto(ctx)
	one := decimal.NewFromInt(1)
	inflation := one.Add(decimal.NewFromFloat(levers.Inflation))
	rate := one.Add(decimal.NewFromFloat(levers.InterestRate))

	return []models.ScenarioResult{
		{Scenario: models.ScenarioBase, NetProfit: revenue.Sub(cost)},
		{Scenario: models.ScenarioInflation, NetProfit: revenue.Sub(cost.Mul(inflation))},
		{Scenario: models.ScenarioRate, NetProfit: revenue.Sub(cost.Mul(rate))},
		{Scenario: models.ScenarioBoth, NetProfit: revenue.Sub(cost.Mul(inflation).Mul(rate))},
	}, nil
}

// InterestShock compares the company's latest net margin against the margin
// after costs absorb a rate delta.
func (s *ScenarioService) InterestShock(ctx context.Context, symbol string, rateDelta float64) (*models.InterestShockResult, error) {
	revenue, cost, err := s.latestRevenueCost(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if revenue.IsZero() {
		return nil, utils.NewDegenerateInputErrorf("revenue is zero for %s, margins are undefined", symbol)
	}

	one := decimal.NewFromInt(1)
	shockedCost := cost.Mul(one.Add(decimal.NewFromFloat(rateDelta)))

	baseMargin := revenue.Sub(cost).Div(revenue)
	shockMargin := revenue.Sub(shockedCost).Div(revenue)

	return &models.InterestShockResult{
		Symbol:      symbol,
		RateDelta:   rateDelta,
		BaseMargin:  baseMargin,
		ShockMargin: shockMargin,
		DeltaMargin: shockMargin.Sub(baseMargin),
	}, nil
}

// latestRevenueCost resolves the revenue and cost of the symbol's most
// recent fiscal year.
func (s *ScenarioService) latestRevenueCost(ctx context.Context, symbol string) (decimal.Decimal, decimal.Decimal, error) {
	facts, err := s.store.GetCompanyFacts(ctx, symbol, 1)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(facts) == 0 {
		return decimal.Zero, decimal.Zero, utils.NewNoDataErrorf("no stored facts for symbol %s", symbol)
	}

	rows, err := s.merger.Merge(facts, []string{models.KpiRevenue, models.KpiCost}, nil, 1, SortDescending)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	latest := rows[0]
	revenue := latest.Kpis[models.KpiRevenue]
	cost := latest.Kpis[models.KpiCost]
	if revenue == nil || cost == nil {
		return decimal.Zero, decimal.Zero, utils.NewInsufficientDataErrorf(
			"fiscal year %d of %s is missing revenue or cost", latest.FiscalYear, symbol)
	}

	return decimal.NewFromFloat(*revenue), decimal.NewFromFloat(*cost), nil
}

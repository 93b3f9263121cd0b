package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

func revenueFactsDescending(symbol string, firstYear int, revenues []float64) []models.CompanyFact {
	facts := make([]models.CompanyFact, 0, len(revenues))
	for i := len(revenues) - 1; i >= 0; i-- {
		facts = append(facts, testFact(symbol, firstYear+i, floatPtr(revenues[i]), nil))
	}
	return facts
}

func TestRevenueTrend_GrowthSeries(t *testing.T) {
	// Six years of exactly 10% annual growth.
	revenues := []float64{100000, 110000, 121000, 133100, 146410, 161051}
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).
		Return(revenueFactsDescending("ACME", 2019, revenues), nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	trend, err := service.RevenueTrend(context.Background(), "ACME", 10)
	require.NoError(t, err)

	assert.Equal(t, "ACME", trend.Symbol)
	assert.Equal(t, []int{2019, 2020, 2021, 2022, 2023, 2024}, trend.Years)
	require.Len(t, trend.Revenue, 6)
	assert.InDelta(t, 100000, trend.Revenue[0].InexactFloat64(), 1e-6)
	assert.InDelta(t, 161051, trend.Revenue[5].InexactFloat64(), 1e-6)
	assert.InDelta(t, 0.10, trend.Cagr, 1e-9)

	// A window of 3 over 6 points yields 4 averages.
	require.Len(t, trend.Smoothed, 4)
	assert.InDelta(t, 331000.0/3, trend.Smoothed[0], 1e-6)
	assert.InDelta(t, 364100.0/3, trend.Smoothed[1], 1e-6)
	assert.InDelta(t, 400510.0/3, trend.Smoothed[2], 1e-6)
	assert.InDelta(t, 440561.0/3, trend.Smoothed[3], 1e-6)

	assert.Equal(t, "Revenue trend for ACME across 6 fiscal years", trend.Message)
	store.AssertExpectations(t)
}

func TestRevenueTrend_TwoYearDecline(t *testing.T) {
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).
		Return(revenueFactsDescending("ACME", 2023, []float64{100000, 90000}), nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	trend, err := service.RevenueTrend(context.Background(), "ACME", 10)
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, trend.Years)
	assert.InDelta(t, -0.10, trend.Cagr, 1e-9)
	assert.Empty(t, trend.Smoothed, "two points are below the smoothing window")
}

func TestRevenueTrend_SingleYear(t *testing.T) {
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).
		Return(revenueFactsDescending("ACME", 2024, []float64{100000}), nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	trend, err := service.RevenueTrend(context.Background(), "ACME", 10)
	require.NoError(t, err)

	assert.Equal(t, []int{2024}, trend.Years)
	assert.Zero(t, trend.Cagr)
	assert.Empty(t, trend.Smoothed)
}

func TestRevenueTrend_NoFacts(t *testing.T) {
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "GHOST", 10).
		Return([]models.CompanyFact{}, nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	_, err := service.RevenueTrend(context.Background(), "GHOST", 10)

	require.Error(t, err)
	var noDataErr *utils.NoDataError
	assert.ErrorAs(t, err, &noDataErr)
}

func TestRevenueTrend_SkipsNullRevenueYears(t *testing.T) {
	facts := []models.CompanyFact{
		testFact("ACME", 2024, floatPtr(110000), nil),
		testFact("ACME", 2023, floatPtr(100000), nil),
		testFact("ACME", 2022, nil, floatPtr(60000)),
	}
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).Return(facts, nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	trend, err := service.RevenueTrend(context.Background(), "ACME", 10)
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024}, trend.Years)
	assert.InDelta(t, 0.10, trend.Cagr, 1e-9)
}

func TestRevenueTrend_AllRevenueNull(t *testing.T) {
	facts := []models.CompanyFact{
		testFact("ACME", 2024, nil, floatPtr(60000)),
		testFact("ACME", 2023, nil, floatPtr(55000)),
	}
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).Return(facts, nil)

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	_, err := service.RevenueTrend(context.Background(), "ACME", 10)

	require.Error(t, err)
	var insufficientErr *utils.InsufficientDataError
	assert.ErrorAs(t, err, &insufficientErr)
}

func TestRevenueTrend_StoreError(t *testing.T) {
	store := new(MockFactReader)
	store.On("GetCompanyFacts", mock.Anything, "ACME", 10).
		Return(nil, errors.New("connection refused"))

	service := NewTrendService(store, NewMergeEngine(NewPolicyTable(nil)), 3, logrus.New())
	_, err := service.RevenueTrend(context.Background(), "ACME", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCompoundAnnualGrowthRate(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "empty", values: nil, expected: 0},
		{name: "single value", values: []float64{100}, expected: 0},
		{name: "zero start", values: []float64{0, 100}, expected: 0},
		{name: "negative start", values: []float64{-100, 100}, expected: 0},
		{name: "negative end", values: []float64{100, -50}, expected: 0},
		{name: "flat", values: []float64{100, 100, 100}, expected: 0},
		{name: "doubling in one step", values: []float64{100, 200}, expected: 1.0},
		{name: "ten percent decline", values: []float64{100000, 90000}, expected: -0.10},
		{name: "fifty percent over two steps", values: []float64{100, 150, 225}, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, compoundAnnualGrowthRate(tt.values), 1e-9)
		})
	}
}

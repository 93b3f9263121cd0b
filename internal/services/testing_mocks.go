package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/clients/fred"
	"github.com/finlens/macrobeta-go/internal/models"
)

// MockFactReader implements FactReader for testing within the services
// package and the handler tests built on top of it.
type MockFactReader struct {
	mock.Mock
}

func (m *MockFactReader) GetCompanyFacts(ctx context.Context, symbol string, maxYears int) ([]models.CompanyFact, error) {
	args := m.Called(ctx, symbol, maxYears)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CompanyFact), args.Error(1)
}

func (m *MockFactReader) GetMacroObservations(ctx context.Context, seriesID string, from, to time.Time) ([]models.MacroObservation, error) {
	args := m.Called(ctx, seriesID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MacroObservation), args.Error(1)
}

func (m *MockFactReader) HasMacroSeries(ctx context.Context, seriesID string) (bool, error) {
	args := m.Called(ctx, seriesID)
	return args.Bool(0), args.Error(1)
}

// MockFactWriter implements FactWriter for ingestion tests.
type MockFactWriter struct {
	mock.Mock
}

func (m *MockFactWriter) ReplaceCompanyFacts(ctx context.Context, symbol string, facts []models.CompanyFact) (int64, error) {
	args := m.Called(ctx, symbol, facts)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFactWriter) InsertMacroObservations(ctx context.Context, seriesID string, observations []models.MacroObservation) (int64, error) {
	args := m.Called(ctx, seriesID, observations)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFactWriter) CountMacroObservations(ctx context.Context, seriesID string) (int64, error) {
	args := m.Called(ctx, seriesID)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatementsProvider implements StatementsProvider for testing.
type MockStatementsProvider struct {
	mock.Mock
}

func (m *MockStatementsProvider) IncomeStatements(ctx context.Context, symbol, frequency string) (*equity.StatementsResponse, error) {
	args := m.Called(ctx, symbol, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equity.StatementsResponse), args.Error(1)
}

// MockSeriesProvider implements SeriesProvider for testing.
type MockSeriesProvider struct {
	mock.Mock
}

func (m *MockSeriesProvider) Observations(ctx context.Context, seriesID string) ([]fred.Observation, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fred.Observation), args.Error(1)
}

// MockRateProvider implements RateProvider for testing.
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) LatestValue(ctx context.Context, seriesID string) (float64, error) {
	args := m.Called(ctx, seriesID)
	return args.Get(0).(float64), args.Error(1)
}

// MockQuoteProvider implements QuoteProvider for testing.
type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) Quote(ctx context.Context, symbol string) (*equity.QuoteResponse, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*equity.QuoteResponse), args.Error(1)
}

// MockLeverSource implements LeverSource for testing.
type MockLeverSource struct {
	mock.Mock
}

func (m *MockLeverSource) Auto(ctx context.Context) models.Levers {
	args := m.Called(ctx)
	return args.Get(0).(models.Levers)
}

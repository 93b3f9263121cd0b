package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/clients/fred"
	"github.com/finlens/macrobeta-go/internal/config"
	"github.com/finlens/macrobeta-go/internal/models"
)

func newIngestionService(store FactWriter, fundamentals StatementsProvider, macro SeriesProvider) *IngestionService {
	cfg := config.IngestConfig{MaxYears: 20, DefaultFrequency: FrequencyQuarterly}
	return NewIngestionService(store, fundamentals, macro, cfg, logrus.New())
}

func quarterlyStatements(periods ...string) *equity.StatementsResponse {
	statements := make([]equity.Statement, 0, len(periods))
	for i, period := range periods {
		offset := float64(i * 1000)
		statements = append(statements, equity.Statement{
			PeriodEnd:     period,
			Revenue:       floatPtr(100000 - offset),
			CostOfRevenue: floatPtr(60000 - offset),
			Ebitda:        floatPtr(25000 - offset),
			Eps:           floatPtr(1.5),
		})
	}
	return &equity.StatementsResponse{Frequency: FrequencyQuarterly, Statements: statements}
}

func TestIngestCompany(t *testing.T) {
	fundamentals := new(MockStatementsProvider)
	fundamentals.On("IncomeStatements", mock.Anything, "ACME", FrequencyQuarterly).
		Return(quarterlyStatements("2024-09-30", "2024-06-30", "2024-03-31"), nil)

	store := new(MockFactWriter)
	store.On("ReplaceCompanyFacts", mock.Anything, "ACME", mock.MatchedBy(func(facts []models.CompanyFact) bool {
		return len(facts) == 3 && facts[0].Symbol == "ACME" && facts[0].FiscalYear == 2024
	})).Return(int64(3), nil)

	result, err := newIngestionService(store, fundamentals, nil).
		IngestCompany(context.Background(), "acme", 4, FrequencyQuarterly)
	require.NoError(t, err)

	assert.Equal(t, "ACME", result.Symbol, "symbols are stored uppercased")
	assert.Equal(t, "Successfully ingested 3 quarterly records", result.Message)
	assert.Equal(t, 3, result.RecordsInserted)
	assert.Equal(t, FrequencyQuarterly, result.Frequency)
	assert.Equal(t, 4, result.YearsRequested)
	assert.Equal(t, 3, result.YearsActual)
	require.NotNil(t, result.DateRange)
	assert.Equal(t, "2024-03-31", result.DateRange.Earliest)
	assert.Equal(t, "2024-09-30", result.DateRange.Latest)
	assert.Equal(t, []int{2024}, result.FiscalYears)

	_, err = uuid.Parse(result.BatchID)
	assert.NoError(t, err, "batch id must be a UUID")

	fundamentals.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestIngestCompany_ClampsParameters(t *testing.T) {
	tests := []struct {
		name          string
		years         int
		frequency     string
		wantYears     int
		wantFrequency string
	}{
		{name: "zero years", years: 0, frequency: FrequencyAnnual, wantYears: 20, wantFrequency: FrequencyAnnual},
		{name: "negative years", years: -5, frequency: FrequencyAnnual, wantYears: 20, wantFrequency: FrequencyAnnual},
		{name: "years above cap", years: 50, frequency: FrequencyAnnual, wantYears: 20, wantFrequency: FrequencyAnnual},
		{name: "unknown frequency", years: 5, frequency: "weekly", wantYears: 5, wantFrequency: FrequencyQuarterly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fundamentals := new(MockStatementsProvider)
			fundamentals.On("IncomeStatements", mock.Anything, "ACME", tt.wantFrequency).
				Return(&equity.StatementsResponse{}, nil)

			result, err := newIngestionService(new(MockFactWriter), fundamentals, nil).
				IngestCompany(context.Background(), "ACME", tt.years, tt.frequency)
			require.NoError(t, err)

			assert.Equal(t, tt.wantYears, result.YearsRequested)
			assert.Equal(t, tt.wantFrequency, result.Frequency)
			fundamentals.AssertExpectations(t)
		})
	}
}

func TestIngestCompany_TruncatesToRequestedYears(t *testing.T) {
	fundamentals := new(MockStatementsProvider)
	fundamentals.On("IncomeStatements", mock.Anything, "ACME", FrequencyAnnual).
		Return(quarterlyStatements("2024-12-31", "2023-12-31", "2022-12-31", "2021-12-31"), nil)

	store := new(MockFactWriter)
	store.On("ReplaceCompanyFacts", mock.Anything, "ACME", mock.MatchedBy(func(facts []models.CompanyFact) bool {
		return len(facts) == 2 && facts[0].FiscalYear == 2024 && facts[1].FiscalYear == 2023
	})).Return(int64(2), nil)

	result, err := newIngestionService(store, fundamentals, nil).
		IngestCompany(context.Background(), "ACME", 2, FrequencyAnnual)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsInserted)
	assert.Equal(t, []int{2023, 2024}, result.FiscalYears)
	store.AssertExpectations(t)
}

func TestIngestCompany_NoStatements(t *testing.T) {
	fundamentals := new(MockStatementsProvider)
	fundamentals.On("IncomeStatements", mock.Anything, "GHOST", FrequencyQuarterly).
		Return(&equity.StatementsResponse{}, nil)

	store := new(MockFactWriter)
	result, err := newIngestionService(store, fundamentals, nil).
		IngestCompany(context.Background(), "GHOST", 5, FrequencyQuarterly)
	require.NoError(t, err)

	assert.Equal(t, "No financial data available", result.Message)
	assert.Zero(t, result.RecordsInserted)
	assert.Nil(t, result.DateRange)
	store.AssertNotCalled(t, "ReplaceCompanyFacts", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestCompany_SkipsUnparsablePeriods(t *testing.T) {
	response := &equity.StatementsResponse{Statements: []equity.Statement{
		{PeriodEnd: "2024-06-30", Revenue: floatPtr(100000)},
		{PeriodEnd: "not-a-date", Revenue: floatPtr(90000)},
		{PeriodEnd: "2024-03-31", Revenue: floatPtr(95000)},
	}}
	fundamentals := new(MockStatementsProvider)
	fundamentals.On("IncomeStatements", mock.Anything, "ACME", FrequencyQuarterly).Return(response, nil)

	store := new(MockFactWriter)
	store.On("ReplaceCompanyFacts", mock.Anything, "ACME", mock.MatchedBy(func(facts []models.CompanyFact) bool {
		return len(facts) == 2
	})).Return(int64(2), nil)

	result, err := newIngestionService(store, fundamentals, nil).
		IngestCompany(context.Background(), "ACME", 5, FrequencyQuarterly)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsInserted)
	store.AssertExpectations(t)
}

func TestIngestCompany_ProviderError(t *testing.T) {
	fundamentals := new(MockStatementsProvider)
	fundamentals.On("IncomeStatements", mock.Anything, "ACME", FrequencyQuarterly).
		Return(nil, errors.New("gateway timeout"))

	_, err := newIngestionService(new(MockFactWriter), fundamentals, nil).
		IngestCompany(context.Background(), "ACME", 5, FrequencyQuarterly)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch statements for ACME")
}

func TestIngestMacro_NewSeries(t *testing.T) {
	store := new(MockFactWriter)
	store.On("CountMacroObservations", mock.Anything, "EFFR").Return(int64(0), nil)
	store.On("InsertMacroObservations", mock.Anything, "EFFR", mock.MatchedBy(func(records []models.MacroObservation) bool {
		return len(records) == 2 && records[0].SeriesID == "EFFR"
	})).Return(int64(2), nil)

	macro := new(MockSeriesProvider)
	macro.On("Observations", mock.Anything, "EFFR").Return([]fred.Observation{
		{Date: testDate(t, "2024-01-02"), Value: 5.33},
		{Date: testDate(t, "2024-01-03"), Value: 5.32},
	}, nil)

	result, err := newIngestionService(store, nil, macro).IngestMacro(context.Background(), "effr")
	require.NoError(t, err)

	assert.Equal(t, "EFFR", result.SeriesID, "series ids are stored uppercased")
	assert.Equal(t, "Successfully ingested 2 observations", result.Message)
	assert.Equal(t, 2, result.Inserted)
	assert.Zero(t, result.ExistingRecords)

	_, err = uuid.Parse(result.BatchID)
	assert.NoError(t, err)

	store.AssertExpectations(t)
	macro.AssertExpectations(t)
}

func TestIngestMacro_ExistingSeriesSkipped(t *testing.T) {
	store := new(MockFactWriter)
	store.On("CountMacroObservations", mock.Anything, "EFFR").Return(int64(42), nil)

	macro := new(MockSeriesProvider)
	result, err := newIngestionService(store, nil, macro).IngestMacro(context.Background(), "EFFR")
	require.NoError(t, err)

	assert.Equal(t, "Data already exists for EFFR (42 records). Use existing data for charting.", result.Message)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, 42, result.ExistingRecords)
	macro.AssertNotCalled(t, "Observations", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertMacroObservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestMacro_EmptySeries(t *testing.T) {
	store := new(MockFactWriter)
	store.On("CountMacroObservations", mock.Anything, "NOPE").Return(int64(0), nil)

	macro := new(MockSeriesProvider)
	macro.On("Observations", mock.Anything, "NOPE").Return([]fred.Observation{}, nil)

	result, err := newIngestionService(store, nil, macro).IngestMacro(context.Background(), "NOPE")
	require.NoError(t, err)

	assert.Equal(t, "No observations found for this series", result.Message)
	assert.Zero(t, result.Inserted)
	store.AssertNotCalled(t, "InsertMacroObservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestMacro_ProviderError(t *testing.T) {
	store := new(MockFactWriter)
	store.On("CountMacroObservations", mock.Anything, "EFFR").Return(int64(0), nil)

	macro := new(MockSeriesProvider)
	macro.On("Observations", mock.Anything, "EFFR").Return(nil, errors.New("rate limited"))

	_, err := newIngestionService(store, nil, macro).IngestMacro(context.Background(), "EFFR")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch observations for EFFR")
}

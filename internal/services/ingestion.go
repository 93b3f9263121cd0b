package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/clients/fred"
	"github.com/finlens/macrobeta-go/internal/config"
	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/telemetry"
)

// Statement frequencies accepted by company ingestion.
const (
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"
)

// StatementsProvider returns reported income statements for a symbol,
// ordered most recent first.
type StatementsProvider interface {
	IncomeStatements(ctx context.Context, symbol, frequency string) (*equity.StatementsResponse, error)
}

// SeriesProvider returns the full observation history of a macro series.
type SeriesProvider interface {
	Observations(ctx context.Context, seriesID string) ([]fred.Observation, error)
}

// FactWriter is the store surface ingestion writes through.
type FactWriter interface {
	ReplaceCompanyFacts(ctx context.Context, symbol string, facts []models.CompanyFact) (int64, error)
	InsertMacroObservations(ctx context.Context, seriesID string, observations []models.MacroObservation) (int64, error)
	CountMacroObservations(ctx context.Context, seriesID string) (int64, error)
}

// IngestionService pulls provider data into the fact store. Company batches
// replace the symbol's stored set atomically; macro series are append-only
// and ingested at most once.
type IngestionService struct {
	store            FactWriter
	fundamentals     StatementsProvider
	macro            SeriesProvider
	maxYears         int
	defaultFrequency string
	tracer           *telemetry.BusinessTracer
	logger           *logrus.Logger
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(store FactWriter, fundamentals StatementsProvider, macro SeriesProvider, cfg config.IngestConfig, logger *logrus.Logger) *IngestionService {
	maxYears := cfg.MaxYears
	if maxYears <= 0 {
		maxYears = 20
	}
	defaultFrequency := cfg.DefaultFrequency
	if defaultFrequency != FrequencyQuarterly && defaultFrequency != FrequencyAnnual {
		defaultFrequency = FrequencyQuarterly
	}
	return &IngestionService{
		store:            store,
		fundamentals:     fundamentals,
		macro:            macro,
		maxYears:         maxYears,
		defaultFrequency: defaultFrequency,
		tracer:           telemetry.NewBusinessTracer(),
		logger:           logger,
	}
}

// IngestCompany fetches the symbol's income statements and replaces its
// stored facts with the most recent `years` reporting periods. Out-of-range
// years are clamped and unrecognized frequencies fall back to the default,
// mirroring the tolerant parameter handling of the ingestion UI.
func (s *IngestionService) IngestCompany(ctx context.Context, symbol string, years int, frequency string) (*models.CompanyIngestResult, error) {
	symbol = strings.ToUpper(symbol)
	if years <= 0 || years > s.maxYears {
		years = s.maxYears
	}
	if frequency != FrequencyQuarterly && frequency != FrequencyAnnual {
		frequency = s.defaultFrequency
	}

	ctx, span := s.tracer.TraceIngestion(ctx, "company", symbol)
	defer span.End()

	response, err := s.fundamentals.IncomeStatements(ctx, symbol, frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statements for %s: %w", symbol, err)
	}

	statements := response.Statements
	if len(statements) > years {
		statements = statements[:years]
	}

	facts := make([]models.CompanyFact, 0, len(statements))
	for _, statement := range statements {
		periodEnd, err := time.Parse("2006-01-02", statement.PeriodEnd)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"symbol":     symbol,
				"period_end": statement.PeriodEnd,
			}).Warn("Skipping statement with unparsable period end")
			continue
		}
		facts = append(facts, models.CompanyFact{
			Symbol:     symbol,
			Date:       periodEnd,
			FiscalYear: periodEnd.Year(),
			Revenue:    toNullDecimal(statement.Revenue),
			Cost:       toNullDecimal(statement.CostOfRevenue),
			Ebitda:     toNullDecimal(statement.Ebitda),
			Eps:        toNullDecimal(statement.Eps),
			Price:      toNullDecimal(statement.Price),
		})
	}

	if len(facts) == 0 {
		return &models.CompanyIngestResult{
			Symbol:          symbol,
			Message:         "No financial data available",
			RecordsInserted: 0,
			Frequency:       frequency,
			YearsRequested:  years,
		}, nil
	}

	inserted, err := s.store.ReplaceCompanyFacts(ctx, symbol, facts)
	s.tracer.RecordIngestionOutcome(span, inserted, err)
	if err != nil {
		return nil, err
	}

	earliest, latest := factDateRange(facts)
	result := &models.CompanyIngestResult{
		Symbol:          symbol,
		Message:         fmt.Sprintf("Successfully ingested %d %s records", inserted, frequency),
		RecordsInserted: int(inserted),
		Frequency:       frequency,
		YearsRequested:  years,
		YearsActual:     len(facts),
		DateRange: &models.DateRange{
			Earliest: earliest.Format("2006-01-02"),
			Latest:   latest.Format("2006-01-02"),
		},
		FiscalYears: distinctFiscalYears(facts),
		BatchID:     uuid.New().String(),
	}

	s.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"records":  inserted,
		"batch_id": result.BatchID,
	}).Info("Ingested company facts")

	return result, nil
}

// IngestMacro fetches the full history of a macro series and bulk-inserts
// it. A series that already has stored observations is reported as existing
// and left untouched.
func (s *IngestionService) IngestMacro(ctx context.Context, seriesID string) (*models.MacroIngestResult, error) {
	seriesID = strings.ToUpper(seriesID)

	ctx, span := s.tracer.TraceIngestion(ctx, "macro", seriesID)
	defer span.End()

	existing, err := s.store.CountMacroObservations(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return &models.MacroIngestResult{
			SeriesID: seriesID,
			Message: fmt.Sprintf("Data already exists for %s (%d records). Use existing data for charting.",
				seriesID, existing),
			Inserted:        0,
			ExistingRecords: int(existing),
		}, nil
	}

	observations, err := s.macro.Observations(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch observations for %s: %w", seriesID, err)
	}
	if len(observations) == 0 {
		return &models.MacroIngestResult{
			SeriesID: seriesID,
			Message:  "No observations found for this series",
			Inserted: 0,
		}, nil
	}

	records := make([]models.MacroObservation, 0, len(observations))
	for _, obs := range observations {
		records = append(records, models.MacroObservation{
			SeriesID: seriesID,
			Date:     obs.Date,
			Value:    decimal.NewFromFloat(obs.Value),
		})
	}

	inserted, err := s.store.InsertMacroObservations(ctx, seriesID, records)
	s.tracer.RecordIngestionOutcome(span, inserted, err)
	if err != nil {
		return nil, err
	}

	result := &models.MacroIngestResult{
		SeriesID: seriesID,
		Message:  fmt.Sprintf("Successfully ingested %d observations", inserted),
		Inserted: int(inserted),
		BatchID:  uuid.New().String(),
	}

	s.logger.WithFields(logrus.Fields{
		"series_id": seriesID,
		"records":   inserted,
		"batch_id":  result.BatchID,
	}).Info("Ingested macro series")

	return result, nil
}

func toNullDecimal(value *float64) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*value), Valid: true}
}

func factDateRange(facts []models.CompanyFact) (time.Time, time.Time) {
	earliest := facts[0].Date
	latest := facts[0].Date
	for _, fact := range facts[1:] {
		if fact.Date.Before(earliest) {
			earliest = fact.Date
		}
		if fact.Date.After(latest) {
			latest = fact.Date
		}
	}
	return earliest, latest
}

func distinctFiscalYears(facts []models.CompanyFact) []int {
	seen := make(map[int]bool, len(facts))
	years := make([]int, 0, len(facts))
	for _, fact := range facts {
		if !seen[fact.FiscalYear] {
			seen[fact.FiscalYear] = true
			years = append(years, fact.FiscalYear)
		}
	}
	sort.Ints(years)
	return years
}

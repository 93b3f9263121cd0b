package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/database"
	"github.com/finlens/macrobeta-go/internal/middleware"
	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

type CompanyHandler struct {
	store        *database.FactStore
	ingestion    *services.IngestionService
	fundamentals services.StatementsProvider
	logger       *logrus.Logger
}

// CompanyFinancialsResponse is the live latest-quarter snapshot of a
// symbol. Provider failures surface as zeros plus an error message rather
// than a non-200 status, so dashboards keep rendering.
type CompanyFinancialsResponse struct {
	Symbol  string  `json:"symbol"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Ebitda  float64 `json:"ebitda"`
	Error   string  `json:"error,omitempty"`
}

// CompanyDataRecord is one stored fact row with derived profitability
// fields. Profit and NetMargin are nil when the inputs are missing, and
// NetMargin additionally when revenue is zero.
type CompanyDataRecord struct {
	Date      string              `json:"date"`
	Revenue   decimal.NullDecimal `json:"revenue"`
	Cost      decimal.NullDecimal `json:"cost"`
	Ebitda    decimal.NullDecimal `json:"ebitda"`
	Profit    *decimal.Decimal    `json:"profit"`
	NetMargin *decimal.Decimal    `json:"net_margin"`
}

type CompanyDataResponse struct {
	Symbol    string              `json:"symbol"`
	Message   string              `json:"message"`
	Records   []CompanyDataRecord `json:"records"`
	Count     int                 `json:"count"`
	DateRange *models.DateRange   `json:"date_range,omitempty"`
}

func NewCompanyHandler(store *database.FactStore, ingestion *services.IngestionService, fundamentals services.StatementsProvider, logger *logrus.Logger) *CompanyHandler {
	return &CompanyHandler{
		store:        store,
		ingestion:    ingestion,
		fundamentals: fundamentals,
		logger:       logger,
	}
}

// GetLiveFinancials handles GET /api/v1/company/:symbol. It reads the
// latest quarter straight from the fundamentals provider without touching
// the store.
func (h *CompanyHandler) GetLiveFinancials(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	response := CompanyFinancialsResponse{Symbol: symbol}

	statements, err := h.fundamentals.IncomeStatements(c.Request.Context(), symbol, services.FrequencyQuarterly)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Live fundamentals fetch failed")
		response.Error = fmt.Sprintf("Error fetching data: %v", err)
		c.JSON(http.StatusOK, response)
		return
	}

	if len(statements.Statements) == 0 {
		response.Error = "No financial data available"
		c.JSON(http.StatusOK, response)
		return
	}

	latest := statements.Statements[0]
	if latest.Revenue != nil {
		response.Revenue = *latest.Revenue
	}
	if latest.CostOfRevenue != nil {
		response.Cost = *latest.CostOfRevenue
	}
	if latest.Ebitda != nil {
		response.Ebitda = *latest.Ebitda
	}

	c.JSON(http.StatusOK, response)
}

// IngestCompany handles POST /api/v1/company/:symbol/ingest. Years and
// frequency are optional; out-of-range values are clamped by the
// ingestion service.
func (h *CompanyHandler) IngestCompany(c *gin.Context) {
	symbol := c.Param("symbol")

	years := 0
	if raw := c.Query("years"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "years must be an integer"})
			return
		}
		years = parsed
	}
	frequency := c.Query("frequency")

	result, err := h.ingestion.IngestCompany(c.Request.Context(), symbol, years, frequency)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"symbol":     symbol,
			"request_id": middleware.GetRequestID(c),
		}).Error("Company ingestion failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStoredData handles GET /api/v1/company/:symbol/data, returning every
// stored fact row for the symbol, most recent first.
func (h *CompanyHandler) GetStoredData(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	facts, err := h.store.ListCompanyFacts(c.Request.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to read stored company data")
		respondError(c, err)
		return
	}

	if len(facts) == 0 {
		c.JSON(http.StatusOK, CompanyDataResponse{
			Symbol:  symbol,
			Message: "No stored data found for this symbol",
			Records: []CompanyDataRecord{},
			Count:   0,
		})
		return
	}

	records := make([]CompanyDataRecord, 0, len(facts))
	for _, fact := range facts {
		records = append(records, companyDataRecord(fact))
	}

	c.JSON(http.StatusOK, CompanyDataResponse{
		Symbol:  symbol,
		Message: fmt.Sprintf("Retrieved %d records", len(records)),
		Records: records,
		Count:   len(records),
		DateRange: &models.DateRange{
			Earliest: facts[len(facts)-1].Date.Format("2006-01-02"),
			Latest:   facts[0].Date.Format("2006-01-02"),
		},
	})
}

func companyDataRecord(fact models.CompanyFact) CompanyDataRecord {
	record := CompanyDataRecord{
		Date:    fact.Date.Format("2006-01-02"),
		Revenue: fact.Revenue,
		Cost:    fact.Cost,
		Ebitda:  fact.Ebitda,
	}

	if fact.Revenue.Valid && fact.Cost.Valid {
		profit := fact.Revenue.Decimal.Sub(fact.Cost.Decimal)
		record.Profit = &profit
		if !fact.Revenue.Decimal.IsZero() {
			margin := profit.Div(fact.Revenue.Decimal)
			record.NetMargin = &margin
		}
	}

	return record
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/database"
	"github.com/finlens/macrobeta-go/internal/middleware"
	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

// macroChartLimit caps how many observations the stored-series endpoint
// returns. Daily series run to tens of thousands of rows; charts need the
// recent window.
const macroChartLimit = 200

type MacroHandler struct {
	store     *database.FactStore
	ingestion *services.IngestionService
	logger    *logrus.Logger
}

type MacroDataRecord struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type MacroDataResponse struct {
	SeriesID  string            `json:"series_id"`
	Message   string            `json:"message"`
	Records   []MacroDataRecord `json:"records"`
	Count     int               `json:"count"`
	DateRange *models.DateRange `json:"date_range,omitempty"`
}

func NewMacroHandler(store *database.FactStore, ingestion *services.IngestionService, logger *logrus.Logger) *MacroHandler {
	return &MacroHandler{
		store:     store,
		ingestion: ingestion,
		logger:    logger,
	}
}

// IngestMacro handles POST /api/v1/macro/:seriesID/ingest.
func (h *MacroHandler) IngestMacro(c *gin.Context) {
	seriesID := c.Param("seriesID")

	result, err := h.ingestion.IngestMacro(c.Request.Context(), seriesID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"series_id":  seriesID,
			"request_id": middleware.GetRequestID(c),
		}).Error("Macro ingestion failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStoredSeries handles GET /api/v1/macro/:seriesID, returning the most
// recent stored observations, newest first.
func (h *MacroHandler) GetStoredSeries(c *gin.Context) {
	seriesID := strings.ToUpper(c.Param("seriesID"))

	observations, err := h.store.GetRecentMacroObservations(c.Request.Context(), seriesID, macroChartLimit)
	if err != nil {
		h.logger.WithError(err).WithField("series_id", seriesID).Error("Failed to read stored macro data")
		respondError(c, err)
		return
	}

	if len(observations) == 0 {
		c.JSON(http.StatusOK, MacroDataResponse{
			SeriesID: seriesID,
			Message:  "No stored data found for this series",
			Records:  []MacroDataRecord{},
			Count:    0,
		})
		return
	}

	records := make([]MacroDataRecord, 0, len(observations))
	for _, obs := range observations {
		records = append(records, MacroDataRecord{
			Date:  obs.Date.Format("2006-01-02"),
			Value: obs.Value,
		})
	}

	c.JSON(http.StatusOK, MacroDataResponse{
		SeriesID: seriesID,
		Message:  fmt.Sprintf("Retrieved %d records", len(records)),
		Records:  records,
		Count:    len(records),
		DateRange: &models.DateRange{
			Earliest: observations[len(observations)-1].Date.Format("2006-01-02"),
			Latest:   observations[0].Date.Format("2006-01-02"),
		},
	})
}

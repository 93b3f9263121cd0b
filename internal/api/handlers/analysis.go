package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/config"
	"github.com/finlens/macrobeta-go/internal/services"
)

type AnalysisHandler struct {
	analysisService *services.AnalysisService
	trendService    *services.TrendService
	cfg             config.AnalysisConfig
	logger          *logrus.Logger
}

// BetaRequest is the POST body for a beta computation. Years defaults to
// the configured analysis window when omitted.
type BetaRequest struct {
	Symbol        string `json:"symbol"`
	Kpi           string `json:"kpi"`
	MacroVariable string `json:"macro_variable"`
	Years         int    `json:"years"`
}

func NewAnalysisHandler(analysisService *services.AnalysisService, trendService *services.TrendService, cfg config.AnalysisConfig, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		trendService:    trendService,
		cfg:             cfg,
		logger:          logger,
	}
}

// ComputeBeta handles POST /api/v1/analysis/beta.
func (h *AnalysisHandler) ComputeBeta(c *gin.Context) {
	var req BetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Symbol == "" || req.Kpi == "" || req.MacroVariable == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol, kpi and macro_variable are required"})
		return
	}

	years := req.Years
	if years == 0 {
		years = h.cfg.DefaultYears
	}
	if !h.yearsInRange(years) {
		c.JSON(http.StatusBadRequest, gin.H{"error": h.yearsRangeError()})
		return
	}

	h.runBeta(c, req.Symbol, req.Kpi, req.MacroVariable, years)
}

// GetBeta handles GET /api/v1/analysis/beta/:symbol with kpi, macro and
// years query parameters.
func (h *AnalysisHandler) GetBeta(c *gin.Context) {
	symbol := c.Param("symbol")

	kpi := c.Query("kpi")
	if kpi == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kpi parameter is required"})
		return
	}

	macroVariable := c.Query("macro")
	if macroVariable == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "macro parameter is required"})
		return
	}

	years, ok := h.parseYears(c)
	if !ok {
		return
	}

	h.runBeta(c, symbol, kpi, macroVariable, years)
}

// GetRevenueTrend handles GET /api/v1/analysis/trend/revenue/:symbol.
func (h *AnalysisHandler) GetRevenueTrend(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	years, ok := h.parseYears(c)
	if !ok {
		return
	}

	trend, err := h.trendService.RevenueTrend(c.Request.Context(), symbol, years)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Revenue trend failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trend)
}

func (h *AnalysisHandler) runBeta(c *gin.Context, symbol, kpi, macroVariable string, years int) {
	symbol = strings.ToUpper(symbol)

	analysis, err := h.analysisService.ComputeBeta(c.Request.Context(), symbol, kpi, macroVariable, years)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"symbol": symbol,
			"kpi":    kpi,
			"macro":  macroVariable,
		}).Warn("Beta analysis failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// parseYears reads the optional years query parameter, falling back to the
// configured default. It writes the 400 response itself when the value is
// unusable.
func (h *AnalysisHandler) parseYears(c *gin.Context) (int, bool) {
	raw := c.Query("years")
	if raw == "" {
		return h.cfg.DefaultYears, true
	}

	years, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "years must be an integer"})
		return 0, false
	}
	if !h.yearsInRange(years) {
		c.JSON(http.StatusBadRequest, gin.H{"error": h.yearsRangeError()})
		return 0, false
	}

	return years, true
}

func (h *AnalysisHandler) yearsInRange(years int) bool {
	return years >= h.cfg.MinYears && years <= h.cfg.MaxYears
}

func (h *AnalysisHandler) yearsRangeError() string {
	return fmt.Sprintf("years must be between %d and %d", h.cfg.MinYears, h.cfg.MaxYears)
}

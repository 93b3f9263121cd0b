package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

type ScenarioHandler struct {
	scenarios *services.ScenarioService
	logger    *logrus.Logger
}

// InterestShockRequest is the POST body for an interest shock run.
// RateDelta may be negative for rate-cut scenarios.
type InterestShockRequest struct {
	Symbol    string  `json:"symbol"`
	RateDelta float64 `json:"rate_delta"`
}

type ScenarioMatrixResponse struct {
	Symbol    string                  `json:"symbol"`
	Scenarios []models.ScenarioResult `json:"scenarios"`
}

func NewScenarioHandler(scenarios *services.ScenarioService, logger *logrus.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		scenarios: scenarios,
		logger:    logger,
	}
}

// GetMatrix handles GET /api/v1/scenario/matrix/:symbol.
func (h *ScenarioHandler) GetMatrix(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	scenarios, err := h.scenarios.Matrix(c.Request.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Scenario matrix failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScenarioMatrixResponse{
		Symbol:    symbol,
		Scenarios: scenarios,
	})
}

// InterestShock handles POST /api/v1/scenario/interest-shock.
func (h *ScenarioHandler) InterestShock(c *gin.Context) {
	var req InterestShockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	result, err := h.scenarios.InterestShock(c.Request.Context(), strings.ToUpper(req.Symbol), req.RateDelta)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Warn("Interest shock failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

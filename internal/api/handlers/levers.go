package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

type LeversHandler struct {
	levers services.LeverSource
	logger *logrus.Logger
}

func NewLeversHandler(levers services.LeverSource, logger *logrus.Logger) *LeversHandler {
	return &LeversHandler{
		levers: levers,
		logger: logger,
	}
}

// SetLevers handles POST /api/v1/levers. The values are validated and
// echoed back; clients hold the state.
func (h *LeversHandler) SetLevers(c *gin.Context) {
	var levers models.Levers
	if err := c.ShouldBindJSON(&levers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.JSON(http.StatusOK, levers)
}

// GetAutoLevers handles GET /api/v1/levers/auto, deriving the four levers
// from live market data with fallbacks on provider failure.
func (h *LeversHandler) GetAutoLevers(c *gin.Context) {
	c.JSON(http.StatusOK, h.levers.Auto(c.Request.Context()))
}

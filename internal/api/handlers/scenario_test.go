package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/services"
)

func newScenarioRouter(store services.FactReader, levers services.LeverSource) *gin.Engine {
	gin.SetMode(gin.TestMode)

	merger := services.NewMergeEngine(services.NewPolicyTable(nil))
	handler := NewScenarioHandler(services.NewScenarioService(store, merger, levers, logrus.New()), logrus.New())

	router := gin.New()
	router.GET("/api/v1/scenario/matrix/:symbol", handler.GetMatrix)
	router.POST("/api/v1/scenario/interest-shock", handler.InterestShock)
	return router
}

func scenarioFact(symbol string, year int, revenue, cost float64) models.CompanyFact {
	return models.CompanyFact{
		Symbol:     symbol,
		Date:       time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		FiscalYear: year,
		Revenue:    nullDecimal(revenue),
		Cost:       nullDecimal(cost),
	}
}

func TestGetScenarioMatrix_Success(t *testing.T) {
	store := &services.MockFactReader{}
	store.On("GetCompanyFacts", mock.Anything, "ACME", 1).
		Return([]models.CompanyFact{scenarioFact("ACME", 2024, 1000, 600)}, nil)

	levers := &services.MockLeverSource{}
	levers.On("Auto", mock.Anything).Return(models.Levers{
		InterestRate: 0.05,
		FxRate:       1.35,
		Inflation:    0.03,
		WageGrowth:   0.025,
	})

	router := newScenarioRouter(store, levers)
	w := getJSON(t, router, "/api/v1/scenario/matrix/acme")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decodeBody(t, w)
	assert.Equal(t, "ACME", response["symbol"])

	scenarios, ok := response["scenarios"].([]interface{})
	require.True(t, ok)
	require.Len(t, scenarios, 4)

	expected := []struct {
		scenario  string
		netProfit string
	}{
		{"base", "400"},
		{"+inf", "382"},
		{"+rate", "370"},
		{"+both", "351.1"},
	}
	for i, want := range expected {
		row, ok := scenarios[i].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, want.scenario, row["scenario"])
		assert.Equal(t, want.netProfit, row["net_profit"])
	}

	store.AssertExpectations(t)
	levers.AssertExpectations(t)
}

func TestGetScenarioMatrix_NoFacts(t *testing.T) {
	store := &services.MockFactReader{}
	store.On("GetCompanyFacts", mock.Anything, "GHOST", 1).
		Return([]models.CompanyFact{}, nil)

	router := newScenarioRouter(store, &services.MockLeverSource{})
	w := getJSON(t, router, "/api/v1/scenario/matrix/GHOST")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "no stored facts for symbol GHOST")
}

func TestInterestShock_Success(t *testing.T) {
	store := &services.MockFactReader{}
	store.On("GetCompanyFacts", mock.Anything, "ACME", 1).
		Return([]models.CompanyFact{scenarioFact("ACME", 2024, 1000, 600)}, nil)

	router := newScenarioRouter(store, &services.MockLeverSource{})
	w := postJSON(t, router, "/api/v1/scenario/interest-shock", map[string]interface{}{
		"symbol":     "acme",
		"rate_delta": 0.02,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decodeBody(t, w)
	assert.Equal(t, "ACME", response["symbol"])
	assert.InDelta(t, 0.02, response["rate_delta"], 1e-12)
	assert.Equal(t, "0.4", response["base_margin"])
	assert.Equal(t, "0.388", response["shock_margin"])
	assert.Equal(t, "-0.012", response["delta_margin"])
}

func TestInterestShock_InvalidBody(t *testing.T) {
	router := newScenarioRouter(&services.MockFactReader{}, &services.MockLeverSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenario/interest-shock", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, w)["error"])
}

func TestInterestShock_MissingSymbol(t *testing.T) {
	router := newScenarioRouter(&services.MockFactReader{}, &services.MockLeverSource{})

	w := postJSON(t, router, "/api/v1/scenario/interest-shock", map[string]interface{}{
		"rate_delta": 0.02,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "symbol is required", decodeBody(t, w)["error"])
}

func TestInterestShock_ZeroRevenue(t *testing.T) {
	store := &services.MockFactReader{}
	store.On("GetCompanyFacts", mock.Anything, "ACME", 1).
		Return([]models.CompanyFact{scenarioFact("ACME", 2024, 0, 600)}, nil)

	router := newScenarioRouter(store, &services.MockLeverSource{})
	w := postJSON(t, router, "/api/v1/scenario/interest-shock", map[string]interface{}{
		"symbol":     "ACME",
		"rate_delta": 0.02,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "margins are undefined")
}

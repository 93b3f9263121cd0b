package equity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/config"
)

func newTestClient(serverURL string) *equity.Client {
	return equity.NewClient(&config.FundamentalsConfig{
		ServiceURL: serverURL,
		Timeout:    5,
	})
}

func TestNewClient(t *testing.T) {
	client := equity.NewClient(&config.FundamentalsConfig{ServiceURL: "http://localhost:3001/"})

	assert.Equal(t, "http://localhost:3001", client.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 30*time.Second, client.HTTPClient.Timeout, "zero timeout falls back to default")
}

func TestIncomeStatements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/fundamentals/AAPL", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "quarterly", r.URL.Query().Get("frequency"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"symbol": "AAPL",
			"frequency": "quarterly",
			"statements": [
				{"period_end": "2024-06-29", "revenue": 85777000000, "cost_of_revenue": 46099000000, "eps": 1.4},
				{"period_end": "2024-03-30", "revenue": 90753000000, "cost_of_revenue": 48482000000}
			]
		}`))
	}))
	defer server.Close()

	response, err := newTestClient(server.URL).IncomeStatements(context.Background(), "AAPL", "quarterly")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", response.Symbol)
	require.Len(t, response.Statements, 2)

	first := response.Statements[0]
	assert.Equal(t, "2024-06-29", first.PeriodEnd)
	require.NotNil(t, first.Revenue)
	assert.InDelta(t, 85777000000, *first.Revenue, 1)
	require.NotNil(t, first.Eps)
	assert.InDelta(t, 1.4, *first.Eps, 1e-12)
	assert.Nil(t, first.Ebitda, "omitted line items stay nil")
	assert.Nil(t, response.Statements[1].Eps)
}

func TestIncomeStatements_NoFrequency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("frequency"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol": "AAPL", "statements": []}`))
	}))
	defer server.Close()

	response, err := newTestClient(server.URL).IncomeStatements(context.Background(), "AAPL", "")
	require.NoError(t, err)

	assert.Empty(t, response.Statements)
}

func TestIncomeStatements_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "unknown symbol GHOST"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).IncomeStatements(context.Background(), "GHOST", "quarterly")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fundamentals service error (404): unknown symbol GHOST")
}

func TestQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote/USDCAD=X", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol": "USDCAD=X", "price": 1.3725}`))
	}))
	defer server.Close()

	quote, err := newTestClient(server.URL).Quote(context.Background(), "USDCAD=X")
	require.NoError(t, err)

	assert.Equal(t, "USDCAD=X", quote.Symbol)
	assert.InDelta(t, 1.3725, quote.Price, 1e-12)
}

func TestQuote_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Quote(context.Background(), "USDCAD=X")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}

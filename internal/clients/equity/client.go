// Package equity provides a client for the fundamentals gateway, the
// sidecar service fronting the upstream market-data vendor.
package equity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finlens/macrobeta-go/internal/config"
)

// Client represents the fundamentals gateway HTTP client.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// Statement is one reported income-statement period. Numeric fields are
// pointers because the vendor omits line items it cannot source.
type Statement struct {
	PeriodEnd     string   `json:"period_end"`
	Revenue       *float64 `json:"revenue"`
	CostOfRevenue *float64 `json:"cost_of_revenue"`
	Ebitda        *float64 `json:"ebitda"`
	Eps           *float64 `json:"eps"`
	Price         *float64 `json:"price"`
}

// StatementsResponse is the gateway payload for income statements.
type StatementsResponse struct {
	Symbol     string      `json:"symbol"`
	Frequency  string      `json:"frequency"`
	Statements []Statement `json:"statements"`
}

// QuoteResponse is the gateway payload for a symbol quote.
type QuoteResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewClient creates a new fundamentals gateway client instance.
func NewClient(cfg *config.FundamentalsConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.ServiceURL, "/"),
	}
}

// IncomeStatements retrieves the reported income statements for a symbol at
// the requested frequency, "quarterly" or "annual".
func (c *Client) IncomeStatements(ctx context.Context, symbol, frequency string) (*StatementsResponse, error) {
	path := fmt.Sprintf("/api/fundamentals/%s", url.PathEscape(symbol))
	if frequency != "" {
		path += "?frequency=" + url.QueryEscape(frequency)
	}

	var response StatementsResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Quote retrieves the latest traded price for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*QuoteResponse, error) {
	path := fmt.Sprintf("/api/quote/%s", url.PathEscape(symbol))

	var response QuoteResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) makeRequest(ctx context.Context, method, path string, result interface{}) error {
	requestURL := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp errorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return fmt.Errorf("fundamentals service error (%d): %s", resp.StatusCode, errorResp.Error)
		}
		return fmt.Errorf("fundamentals service error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

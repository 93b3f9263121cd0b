// Package fred provides a client for the FRED (Federal Reserve Economic
// Data) observations API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finlens/macrobeta-go/internal/config"
)

const observationsPath = "/fred/series/observations"

// Client represents the FRED HTTP client.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	apiKey     string
}

// Observation is a dated series value parsed from a FRED response.
type Observation struct {
	Date  time.Time
	Value float64
}

// observationsResponse mirrors the FRED observations payload. Values arrive
// as strings, with "." marking a missing reading.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// NewClient creates a new FRED client instance.
func NewClient(cfg *config.FREDConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Observations fetches the full observation history of a series. Placeholder
// "." values and entries that fail to parse are skipped, not errors.
func (c *Client) Observations(ctx context.Context, seriesID string) ([]Observation, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)

	var response observationsResponse
	if err := c.makeRequest(ctx, observationsPath, params, &response); err != nil {
		return nil, err
	}

	observations := make([]Observation, 0, len(response.Observations))
	for _, raw := range response.Observations {
		if raw.Value == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(raw.Value, 64)
		if err != nil {
			continue
		}
		observations = append(observations, Observation{Date: date, Value: value})
	}

	return observations, nil
}

// LatestValue fetches the most recent usable value of a series.
func (c *Client) LatestValue(ctx context.Context, seriesID string) (float64, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("sort_order", "desc")
	params.Set("limit", "1")

	var response observationsResponse
	if err := c.makeRequest(ctx, observationsPath, params, &response); err != nil {
		return 0, err
	}

	for _, raw := range response.Observations {
		if raw.Value == "." {
			continue
		}
		value, err := strconv.ParseFloat(raw.Value, 64)
		if err != nil {
			continue
		}
		return value, nil
	}

	return 0, fmt.Errorf("no observations found for series %s", seriesID)
}

func (c *Client) makeRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("FRED API key is not configured")
	}

	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	requestURL := c.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
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
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.ErrorMessage != "" {
			return fmt.Errorf("FRED API error (%d): %s", resp.StatusCode, errorResp.ErrorMessage)
		}
		return fmt.Errorf("FRED API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// previewRows caps how many records upload previews return.
const previewRows = 5

// Column names of the uploaded table and its derived columns.
const (
	columnRevenue     = "Revenue"
	columnCost        = "Cost"
	columnProfit      = "Profit"
	columnNetMargin   = "Net_Margin"
	columnAdjProfit   = "Adj_Profit"
	columnAdjProfitFx = "Adj_Profit_FX"
)

// UploadService parses uploaded financial CSVs and derives profit metrics.
// Everything here is in-memory per request; uploads never touch the store.
type UploadService struct {
	logger *logrus.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(logger *logrus.Logger) *UploadService {
	return &UploadService{logger: logger}
}

// uploadedTable is a parsed CSV with canonicalized headers.
type uploadedTable struct {
	columns []string
	rows    [][]string
}

// Summarize reports the row count, column count and column names of an
// uploaded CSV.
func (s *UploadService) Summarize(r io.Reader) (*models.UploadSummary, error) {
	table, err := s.parse(r)
	if err != nil {
		return nil, err
	}
	return &models.UploadSummary{
		NumRows:     len(table.rows),
		NumColumns:  len(table.columns),
		ColumnNames: table.columns,
	}, nil
}

// Preview returns the first records of the upload with a derived Profit
// column. Rows with unparsable revenue or cost get a null profit.
func (s *UploadService) Preview(r io.Reader) ([]map[string]interface{}, error) {
	table, err := s.parse(r)
	if err != nil {
		return nil, err
	}
	revenueIdx, costIdx, err := table.requireRevenueCost()
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, previewRows)
	for i, row := range table.rows {
		if i == previewRows {
			break
		}
		record := table.recordFor(row)
		if revenue, cost, ok := rowRevenueCost(row, revenueIdx, costIdx); ok {
			record[columnProfit] = revenue - cost
		} else {
			record[columnProfit] = nil
		}
		records = append(records, record)
	}

	return records, nil
}

// Analyze derives Profit, Net_Margin, Adj_Profit and Adj_Profit_FX from the
// upload under the given levers. The preview carries the first records; the
// totals aggregate every parsable row.
func (s *UploadService) Analyze(r io.Reader, levers models.Levers) (*models.UploadAnalysis, error) {
	table, err := s.parse(r)
	if err != nil {
		return nil, err
	}
	revenueIdx, costIdx, err := table.requireRevenueCost()
	if err != nil {
		return nil, err
	}

	preview := make([]map[string]interface{}, 0, previewRows)
	var totals models.UploadTotals
	var netMarginSum float64
	var netMarginCount int

	for i, row := range table.rows {
		var profit, netMargin, adjProfit, adjProfitFx interface{}

		if revenue, cost, ok := rowRevenueCost(row, revenueIdx, costIdx); ok {
			p := revenue - cost
			profit = p
			totals.Profit += p

			a := revenue*(1+levers.Inflation) - cost*(1+levers.WageGrowth)
			adjProfit = a
			totals.AdjProfit += a

			af := a * levers.FxRate
			adjProfitFx = af
			totals.AdjProfitFx += af

			if revenue != 0 {
				m := p / revenue
				netMargin = m
				netMarginSum += m
				netMarginCount++
			}
		}

		if i < previewRows {
			record := table.recordFor(row)
			record[columnProfit] = profit
			record[columnNetMargin] = netMargin
			record[columnAdjProfit] = adjProfit
			record[columnAdjProfitFx] = adjProfitFx
			preview = append(preview, record)
		}
	}

	if netMarginCount > 0 {
		totals.AvgNetMargin = netMarginSum / float64(netMarginCount)
	}

	return &models.UploadAnalysis{
		Preview: preview,
		Totals:  totals,
	}, nil
}

// parse reads the CSV and canonicalizes the header row so Revenue/Cost
// lookups are case-insensitive.
func (s *UploadService) parse(r io.Reader) (*uploadedTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, utils.NewValidationErrorf("failed to read CSV header: %v", err)
	}

	// Caser instances are stateful, so build one per parse.
	caser := cases.Title(language.English)
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = caser.String(strings.TrimSpace(name))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, utils.NewValidationErrorf("failed to read CSV rows: %v", err)
	}

	return &uploadedTable{columns: columns, rows: rows}, nil
}

// requireRevenueCost locates the Revenue and Cost columns.
func (t *uploadedTable) requireRevenueCost() (int, int, error) {
	revenueIdx, costIdx := -1, -1
	for i, column := range t.columns {
		switch column {
		case columnRevenue:
			revenueIdx = i
		case columnCost:
			costIdx = i
		}
	}
	if revenueIdx < 0 || costIdx < 0 {
		return 0, 0, utils.NewValidationErrorf("CSV must contain Revenue and Cost columns, got %v", t.columns)
	}
	return revenueIdx, costIdx, nil
}

// recordFor converts a row into a JSON-friendly record, keeping numeric
// cells numeric.
func (t *uploadedTable) recordFor(row []string) map[string]interface{} {
	record := make(map[string]interface{}, len(t.columns))
	for i, column := range t.columns {
		if i >= len(row) {
			record[column] = nil
			continue
		}
		cell := strings.TrimSpace(row[i])
		if value, err := strconv.ParseFloat(cell, 64); err == nil {
			record[column] = value
		} else {
			record[column] = cell
		}
	}
	return record
}

func rowRevenueCost(row []string, revenueIdx, costIdx int) (float64, float64, bool) {
	revenue, revenueOK := cellFloat(row, revenueIdx)
	cost, costOK := cellFloat(row, costIdx)
	return revenue, cost, revenueOK && costOK
}

func cellFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

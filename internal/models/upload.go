package models

// UploadSummary describes the shape of an uploaded CSV.
type UploadSummary struct {
	NumRows     int      `json:"num_rows"`
	NumColumns  int      `json:"num_columns"`
	ColumnNames []string `json:"column_names"`
}

// UploadTotals aggregates the derived columns of an analyzed upload.
// AvgNetMargin averages only the rows with a nonzero revenue.
type UploadTotals struct {
	Profit       float64 `json:"profit"`
	AdjProfit    float64 `json:"adj_profit"`
	AdjProfitFx  float64 `json:"adj_profit_fx"`
	AvgNetMargin float64 `json:"avg_net_margin"`
}

// UploadAnalysis is the analyzer response: a preview of the derived table
// plus the column totals over every row.
type UploadAnalysis struct {
	Preview []map[string]interface{} `json:"preview"`
	Totals  UploadTotals             `json:"totals"`
}

package services

import (
	"time"

	"github.com/finlens/macrobeta-go/internal/utils"
)

// SeriesPolicy selects how a macro series collapses into one value per
// fiscal year.
type SeriesPolicy string

const (
	// PolicyRate averages every observation within the year. Used for
	// rate-like series such as the effective federal funds rate, where the
	// year is characterized by its average level.
	PolicyRate SeriesPolicy = "RATE"
	// PolicyLevel keeps the latest observation of the year. Used for
	// level and index series, where the year-end reading is the fact.
	PolicyLevel SeriesPolicy = "LEVEL"
)

// PolicyTable maps macro series identifiers to their resampling policy.
// Series without an entry resolve to PolicyLevel.
type PolicyTable map[string]SeriesPolicy

// NewPolicyTable builds a table marking each listed series as rate-like.
func NewPolicyTable(rateSeries []string) PolicyTable {
	table := make(PolicyTable, len(rateSeries))
	for _, seriesID := range rateSeries {
		table[seriesID] = PolicyRate
	}
	return table
}

// PolicyFor returns the policy for a series, defaulting to PolicyLevel.
func (t PolicyTable) PolicyFor(seriesID string) SeriesPolicy {
	if policy, ok := t[seriesID]; ok {
		return policy
	}
	return PolicyLevel
}

// Observation is a dated macro data point prepared for resampling.
type Observation struct {
	Date  time.Time
	Value float64
}

// ResampleByFiscalYear collapses dated observations into one value per fiscal
// year. The fiscal year of an observation is the calendar year of its date.
// Observations outside [minYear, maxYear] are ignored, and years without any
// observation are absent from the result so callers can propagate them as
// nulls. Gaps inside the range are not an error; an entirely empty input is.
func ResampleByFiscalYear(observations []Observation, policy SeriesPolicy, minYear, maxYear int) (map[int]float64, error) {
	if len(observations) == 0 {
		return nil, utils.NewInsufficientDataErrorf("no observations to resample")
	}

	type yearlyAgg struct {
		sum        float64
		count      int
		latestDate time.Time
		latestVal  float64
	}

	byYear := make(map[int]*yearlyAgg)
	for _, obs := range observations {
		year := obs.Date.Year()
		if year < minYear || year > maxYear {
			continue
		}
		agg, ok := byYear[year]
		if !ok {
			agg = &yearlyAgg{}
			byYear[year] = agg
		}
		agg.sum += obs.Value
		agg.count++
		if agg.count == 1 || obs.Date.After(agg.latestDate) {
			agg.latestDate = obs.Date
			agg.latestVal = obs.Value
		}
	}

	resampled := make(map[int]float64, len(byYear))
	for year, agg := range byYear {
		if policy == PolicyRate {
			resampled[year] = agg.sum / float64(agg.count)
		} else {
			resampled[year] = agg.latestVal
		}
	}

	return resampled, nil
}

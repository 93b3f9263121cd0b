package services

import (
	"sort"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// SortDirection orders merged rows by fiscal year.
type SortDirection string

const (
	// SortAscending is used by regression and growth consumers that need
	// chronological order.
	SortAscending SortDirection = "asc"
	// SortDescending is used by display consumers that lead with the most
	// recent year.
	SortDescending SortDirection = "desc"
)

// MergeEngine aligns company KPI facts with resampled macro series on fiscal
// year, producing the row set the regression and scenario layers consume.
type MergeEngine struct {
	policies PolicyTable
}

// NewMergeEngine creates a merge engine using the given resampling policies.
func NewMergeEngine(policies PolicyTable) *MergeEngine {
	return &MergeEngine{policies: policies}
}

// Merge builds one row per selected fiscal year. It deduplicates source facts
// on fiscal year, caps the selection at the yearLimit most recent years,
// resamples each macro series over exactly that year range, and left-joins
// the macro values onto the KPI rows. Missing values stay nil; rows are never
// dropped or interpolated here.
func (e *MergeEngine) Merge(facts []models.CompanyFact, kpiNames []string, macroObs map[string][]Observation, yearLimit int, dir SortDirection) ([]models.MergedRow, error) {
	for _, name := range kpiNames {
		if !models.IsKnownKpi(name) {
			return nil, utils.NewUnknownKpiError(name, models.KnownKpis())
		}
	}

	if len(facts) == 0 {
		return []models.MergedRow{}, nil
	}

	// Deduplicate on fiscal year. The row with the greater value on the
	// primary KPI wins; a null loses to any non-null; a tie keeps the row
	// encountered first.
	primaryKpi := ""
	if len(kpiNames) > 0 {
		primaryKpi = kpiNames[0]
	}
	factByYear := make(map[int]models.CompanyFact)
	for _, fact := range facts {
		current, ok := factByYear[fact.FiscalYear]
		if !ok || beatsOnKpi(fact, current, primaryKpi) {
			factByYear[fact.FiscalYear] = fact
		}
	}

	years := make([]int, 0, len(factByYear))
	for year := range factByYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if yearLimit > 0 && len(years) > yearLimit {
		years = years[:yearLimit]
	}

	maxYear := years[0]
	minYear := years[len(years)-1]

	// Resample each requested series over the selected range. A series with
	// no observations at all contributes an all-null column, not an error.
	macroByYear := make(map[string]map[int]float64, len(macroObs))
	for seriesID, observations := range macroObs {
		if len(observations) == 0 {
			macroByYear[seriesID] = map[int]float64{}
			continue
		}
		resampled, err := ResampleByFiscalYear(observations, e.policies.PolicyFor(seriesID), minYear, maxYear)
		if err != nil {
			return nil, err
		}
		macroByYear[seriesID] = resampled
	}

	symbol := facts[0].Symbol
	rows := make([]models.MergedRow, 0, len(years))
	for _, year := range years {
		fact := factByYear[year]
		row := models.MergedRow{
			FiscalYear: year,
			Symbol:     symbol,
			Kpis:       make(map[string]*float64, len(kpiNames)),
			Macros:     make(map[string]*float64, len(macroByYear)),
		}
		for _, name := range kpiNames {
			if value, ok := fact.KpiValue(name); ok {
				v := value.InexactFloat64()
				row.Kpis[name] = &v
			} else {
				row.Kpis[name] = nil
			}
		}
		for seriesID, valuesByYear := range macroByYear {
			if value, ok := valuesByYear[year]; ok {
				v := value
				row.Macros[seriesID] = &v
			} else {
				row.Macros[seriesID] = nil
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if dir == SortDescending {
			return rows[i].FiscalYear > rows[j].FiscalYear
		}
		return rows[i].FiscalYear < rows[j].FiscalYear
	})

	return rows, nil
}

// beatsOnKpi reports whether candidate should replace current as the
// representative fact of its fiscal year.
func beatsOnKpi(candidate, current models.CompanyFact, kpi string) bool {
	candidateVal, candidateOK := candidate.KpiValue(kpi)
	currentVal, currentOK := current.KpiValue(kpi)
	switch {
	case !candidateOK:
		return false
	case !currentOK:
		return true
	default:
		return candidateVal.GreaterThan(currentVal)
	}
}

package services

import (
	"fmt"
	"math"

	"github.com/finlens/macrobeta-go/internal/models"
)

// significanceLevel is the two-sided p-value threshold for calling a beta
// estimate significant.
const significanceLevel = 0.05

// Interpret translates regression statistics into analyst-facing labels and
// narrative insights. It is total: every float input maps to a result.
func Interpret(beta, pValue, r2 float64) models.Interpretation {
	interp := models.Interpretation{}

	if pValue <= significanceLevel {
		interp.Significance = models.SignificanceSignificant
	} else {
		interp.Significance = models.SignificanceNotSignificant
	}

	if beta > 0 {
		interp.Direction = models.DirectionPositive
	} else {
		interp.Direction = models.DirectionNegative
	}

	absBeta := math.Abs(beta)
	switch {
	case absBeta < 0.1:
		interp.Strength = models.StrengthWeak
	case absBeta < 0.5:
		interp.Strength = models.StrengthModerate
	default:
		interp.Strength = models.StrengthStrong
	}

	switch {
	case r2 < 0.1:
		interp.ExplainedVariance = models.VarianceLow
	case r2 < 0.5:
		interp.ExplainedVariance = models.VarianceModerate
	default:
		interp.ExplainedVariance = models.VarianceHigh
	}

	insights := make([]string, 0, 2)
	if interp.Significance == models.SignificanceSignificant {
		if interp.Direction == models.DirectionPositive {
			insights = append(insights, fmt.Sprintf(
				"Significant positive relationship: %.4f unit increase in macro variable corresponds to %.4f unit increase in KPI",
				absBeta, absBeta))
		} else {
			insights = append(insights, fmt.Sprintf(
				"Significant negative relationship: %.4f unit increase in macro variable corresponds to %.4f unit decrease in KPI",
				absBeta, absBeta))
		}
	} else {
		insights = append(insights, "No significant relationship found between the variables")
	}

	insights = append(insights, fmt.Sprintf(
		"%s explanatory power: %.1f%% of KPI variance explained by macro variable",
		interp.ExplainedVariance, r2*100))

	interp.Insights = insights
	return interp
}

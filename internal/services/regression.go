package services

import (
	"math"

	"github.com/finlens/macrobeta-go/internal/models"
	"github.com/finlens/macrobeta-go/internal/utils"
)

// RegressionPoint pairs one KPI observation with one macro observation for
// the same fiscal year. Nil coordinates mark missing data; FitBeta drops
// incomplete points before fitting.
type RegressionPoint struct {
	X *float64
	Y *float64
}

// FitBeta fits the univariate ordinary-least-squares model y = alpha + beta*x
// in closed form and reports beta together with its goodness-of-fit
// statistics. The two-sided p-value of beta comes from the Student-t
// distribution with n-2 degrees of freedom.
func FitBeta(points []RegressionPoint) (*models.RegressionResult, error) {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if p.X == nil || p.Y == nil {
			continue
		}
		xs = append(xs, *p.X)
		ys = append(ys, *p.Y)
	}

	n := len(xs)
	if n < 3 {
		return nil, utils.NewInsufficientDataErrorf(
			"insufficient data: %d complete observations, need at least 3", n)
	}

	nf := float64(n)
	var xSum, ySum float64
	for i := range xs {
		xSum += xs[i]
		ySum += ys[i]
	}
	xMean := xSum / nf
	yMean := ySum / nf

	var sxx, syy, sxy float64
	for i := range xs {
		dx := xs[i] - xMean
		dy := ys[i] - yMean
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	if sxx == 0 {
		return nil, utils.NewDegenerateInputErrorf(
			"macro variable has zero variance across %d observations", n)
	}

	result := &models.RegressionResult{
		NObservations: n,
		XMean:         xMean,
		YMean:         yMean,
		XStd:          math.Sqrt(sxx / (nf - 1)),
		YStd:          math.Sqrt(syy / (nf - 1)),
	}

	// A constant dependent variable carries no relationship to estimate.
	if syy == 0 {
		result.Beta = 0
		result.R2 = 0
		result.PValue = 1
		return result, nil
	}

	beta := sxy / sxx
	ssRes := syy - beta*sxy
	if ssRes < 0 {
		// Floating-point cancellation on near-perfect fits.
		ssRes = 0
	}

	result.Beta = beta
	result.R2 = 1 - ssRes/syy

	df := nf - 2
	if ssRes == 0 {
		// Perfect fit: the t statistic diverges.
		result.PValue = 0
		return result, nil
	}

	standardError := math.Sqrt((ssRes / df) / sxx)
	t := beta / standardError
	result.PValue = studentTTwoSidedP(t, df)

	return result, nil
}

// studentTTwoSidedP returns the two-sided p-value of a t statistic with df
// degrees of freedom using the identity
// p = I_{df/(df+t^2)}(df/2, 1/2), where I is the regularized incomplete beta
// function.
func studentTTwoSidedP(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	x := df / (df + t*t)
	return regularizedIncompleteBeta(df/2, 0.5, x)
}

// regularizedIncompleteBeta computes I_x(a, b) with the continued-fraction
// expansion, applying the symmetry I_x(a,b) = 1 - I_{1-x}(b,a) to keep the
// fraction in its fast-converging region.
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the incomplete beta continued fraction with
// the modified Lentz method.
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		mf := float64(m)
		m2 := 2 * mf

		// Even step of the recurrence.
		numerator := mf * (b - mf) * x / ((qam + m2) * (a + m2))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		// Odd step.
		numerator = -(a + mf) * (qab + mf) * x / ((a + m2) * (qap + m2))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}

	return h
}

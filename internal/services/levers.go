package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/models"
)

// Lever fallbacks used when a provider is unreachable. The FRED-sourced
// values mirror typical readings of their series so degraded analyses stay
// plausible.
const (
	fallbackInterestRate = 0.0533
	fallbackInflation    = 0.03
	fallbackWageGrowth   = 0.025
	fallbackFxRate       = 1.35
)

// Provider series feeding the automatic levers.
const (
	seriesEffr      = "EFFR"
	seriesCpi       = "CPIAUCSL"
	seriesWageIndex = "CES0500000030"
	fxPairUsdCad    = "USDCAD=X"
)

// RateProvider returns the latest value of a macro series.
type RateProvider interface {
	LatestValue(ctx context.Context, seriesID string) (float64, error)
}

// QuoteProvider returns the latest quote of a traded symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*equity.QuoteResponse, error)
}

// LeversService derives the macro levers used by scenario arithmetic and the
// upload analyzer from live provider data.
type LeversService struct {
	rates  RateProvider
	quotes QuoteProvider
	logger *logrus.Logger
}

// NewLeversService creates a new levers service.
func NewLeversService(rates RateProvider, quotes QuoteProvider, logger *logrus.Logger) *LeversService {
	return &LeversService{
		rates:  rates,
		quotes: quotes,
		logger: logger,
	}
}

// Auto assembles the current lever values. FRED percentages are converted to
// decimals. A provider failure downgrades only the affected lever to its
// fallback; Auto itself never fails.
func (s *LeversService) Auto(ctx context.Context) models.Levers {
	levers := models.Levers{
		InterestRate: fallbackInterestRate,
		Inflation:    fallbackInflation,
		WageGrowth:   fallbackWageGrowth,
		FxRate:       fallbackFxRate,
	}

	if value, err := s.rates.LatestValue(ctx, seriesEffr); err != nil {
		s.logger.WithError(err).Warn("Using fallback interest rate lever")
	} else {
		levers.InterestRate = value / 100
	}

	if value, err := s.rates.LatestValue(ctx, seriesCpi); err != nil {
		s.logger.WithError(err).Warn("Using fallback inflation lever")
	} else {
		levers.Inflation = value / 100
	}

	if value, err := s.rates.LatestValue(ctx, seriesWageIndex); err != nil {
		s.logger.WithError(err).Warn("Using fallback wage growth lever")
	} else {
		levers.WageGrowth = value / 100
	}

	if quote, err := s.quotes.Quote(ctx, fxPairUsdCad); err != nil {
		s.logger.WithError(err).Warn("Using fallback FX rate lever")
	} else {
		levers.FxRate = quote.Price
	}

	return levers
}

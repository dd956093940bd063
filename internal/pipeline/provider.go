package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/mock"
	"github.com/eddiefleurent/fno_tracker/internal/retry"
)

// NewProvider builds the configured market data provider: the exchange
// client or the mock, optionally behind a circuit breaker and retries.
func NewProvider(cfg *config.Config, run config.RunContext, log *logrus.Entry) (marketdata.Provider, error) {
	var p marketdata.Provider
	switch cfg.MarketData.Provider {
	case "mock":
		log.Info("Using mock market data")
		p = mock.NewDataProvider(run.RunDate)
	case "nse":
		client, err := marketdata.NewClient(marketdata.ClientConfig{
			BaseURL:   cfg.MarketData.BaseURL,
			Timeout:   cfg.HTTPTimeout(),
			RateLimit: cfg.MarketData.RateLimit,
			VIXSymbol: cfg.MarketData.VIXSymbol,
			Logger:    log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating market data client: %w", err)
		}
		p = client
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.MarketData.Provider)
	}

	if cfg.MarketData.CircuitBreaker {
		p = marketdata.NewCircuitBreakerProvider(p, log)
	}
	if cfg.MarketData.MaxRetries > 0 {
		rc := retry.DefaultConfig
		rc.MaxRetries = cfg.MarketData.MaxRetries
		p = retry.NewProvider(p, log, rc)
	}
	return p, nil
}

// Basket converts the configured global indices.
func Basket(cfg *config.Config) []marketdata.GlobalIndex {
	basket := make([]marketdata.GlobalIndex, len(cfg.MarketData.GlobalIndices))
	for i, gi := range cfg.MarketData.GlobalIndices {
		basket[i] = marketdata.GlobalIndex{Name: gi.Name, Ticker: gi.Ticker}
	}
	return basket
}

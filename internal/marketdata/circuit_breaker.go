package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

// CircuitBreakerProvider wraps a Provider with circuit breaker functionality
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// CircuitBreakerSettings configures circuit breaker behavior
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// execCircuitBreaker is a generic helper for circuit breaker wrapper methods
func execCircuitBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	provider Provider,
	fn func(Provider) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(provider) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// NewCircuitBreakerProvider creates a CircuitBreakerProvider with defaults
// sized for a handful of requests per run.
func NewCircuitBreakerProvider(provider Provider, log *logrus.Entry) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(provider, log, CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     5 * time.Minute,
		Timeout:      60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerProviderWithSettings creates a CircuitBreakerProvider with custom settings
func NewCircuitBreakerProviderWithSettings(provider Provider, log *logrus.Entry, settings CircuitBreakerSettings) *CircuitBreakerProvider {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	}

	return &CircuitBreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// FetchOptionChain wraps the underlying provider call with circuit breaker
func (c *CircuitBreakerProvider) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (*models.OptionChain, error) {
		return p.FetchOptionChain(ctx, symbol)
	})
}

// FetchVolatilityIndex wraps the underlying provider call with circuit breaker
func (c *CircuitBreakerProvider) FetchVolatilityIndex(ctx context.Context) (float64, error) {
	return execCircuitBreaker(c.breaker, c.provider, func(p Provider) (float64, error) {
		return p.FetchVolatilityIndex(ctx)
	})
}

// FetchGlobalIndices passes through: per-member failures are already
// contained in the returned quotes and go to a different upstream.
func (c *CircuitBreakerProvider) FetchGlobalIndices(ctx context.Context, basket []GlobalIndex) map[string]GlobalQuote {
	return c.provider.FetchGlobalIndices(ctx, basket)
}

// State exposes the breaker state for logging.
func (c *CircuitBreakerProvider) State() gobreaker.State {
	return c.breaker.State()
}

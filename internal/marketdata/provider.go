// Package marketdata fetches index option chains, the volatility index and
// the global market basket.
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

// ErrEmptyChain is returned when the exchange answers with no option rows.
var ErrEmptyChain = errors.New("option chain is empty")

// APIError represents an API error with status code and response body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// GlobalIndex is one member of the global market basket.
type GlobalIndex struct {
	Name   string
	Ticker string
}

// GlobalQuote is the day-over-day move of one basket member. Err is set
// instead of the numbers when the quote could not be computed.
type GlobalQuote struct {
	Change  float64 `json:"change,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Err     string  `json:"error,omitempty"`
}

// OK reports whether the quote carries data.
func (q GlobalQuote) OK() bool { return q.Err == "" }

// Provider defines the upstream market data capability used by a run.
type Provider interface {
	// FetchOptionChain returns the current option chain of an index.
	FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
	// FetchVolatilityIndex returns the current volatility index level.
	FetchVolatilityIndex(ctx context.Context) (float64, error)
	// FetchGlobalIndices returns one quote per basket member keyed by name.
	// Failures are reported per member, never as a whole.
	FetchGlobalIndices(ctx context.Context, basket []GlobalIndex) map[string]GlobalQuote
}

// Ensure implementations satisfy Provider
var (
	_ Provider = (*Client)(nil)
	_ Provider = (*CircuitBreakerProvider)(nil)
)

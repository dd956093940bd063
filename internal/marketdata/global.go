package marketdata

import (
	"context"
	"fmt"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// InsufficientData is the quote error when fewer than two closes exist.
const InsufficientData = "Insufficient data"

// YahooHistory fetches the last five daily closes of a Yahoo ticker.
func YahooHistory(ctx context.Context, symbol string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     "5d",
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if bar.Close > 0 {
			closes = append(closes, bar.Close)
		}
	}
	return closes, nil
}

// QuoteFromCloses derives change and percent from the last two closes.
func QuoteFromCloses(closes []float64) GlobalQuote {
	if len(closes) < 2 {
		return GlobalQuote{Err: InsufficientData}
	}
	prev, last := closes[len(closes)-2], closes[len(closes)-1]
	if prev == 0 {
		return GlobalQuote{Err: InsufficientData}
	}
	change := last - prev
	return GlobalQuote{
		Change:  util.Round2(change),
		Percent: util.Round2(change / prev * 100),
	}
}

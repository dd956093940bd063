// Package mock provides synthetic market data for paper runs and tests.
package mock

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// secureInt63n generates a cryptographically secure random int64 between 0 and n-1
func secureInt63n(n int64) int64 {
	max := big.NewInt(n)
	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return n / 2
	}
	return r.Int64()
}

// underlying describes how an index is simulated.
type underlying struct {
	spot     float64
	interval float64
}

var underlyings = map[string]underlying{
	"BANKNIFTY": {spot: 48000, interval: 100},
	"NIFTY":     {spot: 24000, interval: 50},
	"FINNIFTY":  {spot: 22000, interval: 50},
}

// strikesEachSide is how many strikes are generated above and below spot.
const strikesEachSide = 20

// DataProvider implements marketdata.Provider with random walks around
// fixed index levels.
type DataProvider struct {
	mu    sync.Mutex
	today time.Time
	spots map[string]float64
	vix   float64
}

var _ marketdata.Provider = (*DataProvider)(nil)

// NewDataProvider creates a provider whose expiries are relative to today.
func NewDataProvider(today time.Time) *DataProvider {
	spots := make(map[string]float64, len(underlyings))
	for sym, u := range underlyings {
		spots[sym] = u.spot * (0.98 + secureFloat64()*0.04)
	}
	return &DataProvider{
		today: util.DateOnly(today),
		spots: spots,
		vix:   11.0 + secureFloat64()*7, // 11-18
	}
}

// FetchOptionChain returns a chain with two weekly expiries.
func (m *DataProvider) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, ok := underlyings[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, marketdata.ErrEmptyChain)
	}

	m.mu.Lock()
	// Simulate small price movements
	m.spots[symbol] *= 1 + (secureFloat64()-0.5)*0.004
	spot := m.spots[symbol]
	m.mu.Unlock()

	atm := math.Round(spot/u.interval) * u.interval
	expiries := []time.Time{nextExpiry(m.today), nextExpiry(m.today).AddDate(0, 0, 7)}

	chain := &models.OptionChain{Records: models.OptionChainRecords{UnderlyingValue: util.Round2(spot)}}
	for _, exp := range expiries {
		dte := exp.Sub(m.today).Hours() / 24
		for i := -strikesEachSide; i <= strikesEachSide; i++ {
			strike := atm + float64(i)*u.interval
			chain.Records.Data = append(chain.Records.Data, models.OptionChainRow{
				StrikePrice: strike,
				ExpiryDate:  exp.Format(models.ExpiryLayout),
				CE:          m.side(symbol, exp, strike, spot, dte, models.SideCall),
				PE:          m.side(symbol, exp, strike, spot, dte, models.SidePut),
			})
		}
	}
	return chain, nil
}

func (m *DataProvider) side(symbol string, exp time.Time, strike, spot, dte float64, side models.Side) *models.OptionSide {
	intrinsic := spot - strike
	if side == models.SidePut {
		intrinsic = strike - spot
	}
	intrinsic = math.Max(0, intrinsic)

	distance := math.Abs(strike - spot)
	timeValue := spot * m.vix / 100 * math.Sqrt((dte+1)/365) * 0.4 * math.Exp(-distance/(spot*0.02))
	ltp := util.RoundToTick(intrinsic+timeValue, 0.05)

	// Activity concentrates near the money
	activity := math.Exp(-distance / (spot * 0.01))
	return &models.OptionSide{
		Identifier:        fmt.Sprintf("OPTIDX%s%s%s%.2f", symbol, exp.Format("02-01-2006"), side, strike),
		OpenInterest:      int64(activity*200000) + secureInt63n(20000),
		TotalTradedVolume: int64(activity*1500000) + secureInt63n(100000),
		LastPrice:         ltp,
	}
}

// nextExpiry returns the first Thursday on or after day.
func nextExpiry(day time.Time) time.Time {
	d := util.DateOnly(day)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// FetchVolatilityIndex returns a drifting level between 10 and 30.
func (m *DataProvider) FetchVolatilityIndex(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vix += (secureFloat64() - 0.5) * 0.5
	m.vix = math.Max(10, math.Min(30, m.vix))
	return util.Round2(m.vix), nil
}

// FetchGlobalIndices returns moves of up to ±1.5% for every member.
func (m *DataProvider) FetchGlobalIndices(ctx context.Context, basket []marketdata.GlobalIndex) map[string]marketdata.GlobalQuote {
	out := make(map[string]marketdata.GlobalQuote, len(basket))
	for _, gi := range basket {
		if ctx.Err() != nil {
			out[gi.Name] = marketdata.GlobalQuote{Err: ctx.Err().Error()}
			continue
		}
		prev := 10000 + secureFloat64()*30000
		last := prev * (1 + (secureFloat64()-0.5)*0.03)
		out[gi.Name] = marketdata.QuoteFromCloses([]float64{prev, last})
	}
	return out
}

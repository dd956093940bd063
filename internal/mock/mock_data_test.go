package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/fno_tracker/internal/chain"
	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
)

// Monday
var today = time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)

func TestDataProvider_FetchOptionChain(t *testing.T) {
	p := NewDataProvider(today)

	oc, err := p.FetchOptionChain(context.Background(), "BANKNIFTY")
	require.NoError(t, err)

	spot := oc.Records.UnderlyingValue
	assert.InDelta(t, 48000, spot, 48000*0.03)
	assert.Len(t, oc.Records.Data, 2*(2*strikesEachSide+1))

	expiries := map[string]bool{}
	for _, row := range oc.Records.Data {
		expiries[row.ExpiryDate] = true
		require.NotNil(t, row.CE)
		require.NotNil(t, row.PE)
		assert.NotEmpty(t, row.CE.Identifier)
		assert.GreaterOrEqual(t, row.CE.LastPrice, 0.0)
		assert.GreaterOrEqual(t, row.PE.OpenInterest, int64(0))
	}
	assert.Equal(t, map[string]bool{"19-Jun-2025": true, "26-Jun-2025": true}, expiries)
}

func TestDataProvider_ChainSurvivesExtraction(t *testing.T) {
	p := NewDataProvider(today)

	oc, err := p.FetchOptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)

	rows := chain.NewExtractor(today, chain.DefaultStrikeWindow).FlattenChain(oc)
	assert.NotEmpty(t, rows)
}

func TestDataProvider_UnknownSymbol(t *testing.T) {
	p := NewDataProvider(today)

	_, err := p.FetchOptionChain(context.Background(), "SENSEX")
	assert.True(t, errors.Is(err, marketdata.ErrEmptyChain))
}

func TestDataProvider_CanceledContext(t *testing.T) {
	p := NewDataProvider(today)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchOptionChain(ctx, "NIFTY")
	assert.Error(t, err)
	_, err = p.FetchVolatilityIndex(ctx)
	assert.Error(t, err)

	quotes := p.FetchGlobalIndices(ctx, []marketdata.GlobalIndex{{Name: "Dow", Ticker: "^DJI"}})
	assert.False(t, quotes["Dow"].OK())
}

func TestDataProvider_FetchVolatilityIndex(t *testing.T) {
	p := NewDataProvider(today)

	for i := 0; i < 20; i++ {
		vix, err := p.FetchVolatilityIndex(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, vix, 10.0)
		assert.LessOrEqual(t, vix, 30.0)
	}
}

func TestDataProvider_FetchGlobalIndices(t *testing.T) {
	p := NewDataProvider(today)
	basket := []marketdata.GlobalIndex{{Name: "Dow", Ticker: "^DJI"}, {Name: "Nasdaq", Ticker: "^IXIC"}}

	quotes := p.FetchGlobalIndices(context.Background(), basket)
	require.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.True(t, q.OK())
		assert.LessOrEqual(t, q.Percent, 1.51)
		assert.GreaterOrEqual(t, q.Percent, -1.51)
	}
}

func TestNextExpiry(t *testing.T) {
	assert.Equal(t, "19-Jun-2025", nextExpiry(today).Format(models.ExpiryLayout))
	thursday := time.Date(2025, time.June, 19, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "19-Jun-2025", nextExpiry(thursday).Format(models.ExpiryLayout))
}

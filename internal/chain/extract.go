// Package chain turns raw option-chain entries into the flattened rows that
// make up a daily snapshot.
package chain

import (
	"math"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// DefaultStrikeWindow is the maximum distance, in index points, between a
// strike and the spot price for the row to be kept.
const DefaultStrikeWindow = 1500.0

// Extractor applies the admission rule to raw rows.
type Extractor struct {
	// Today is the fetch date; expiries before it are rejected.
	Today        time.Time
	StrikeWindow float64
}

// NewExtractor returns an extractor for the given fetch date.
func NewExtractor(today time.Time, strikeWindow float64) *Extractor {
	if strikeWindow <= 0 {
		strikeWindow = DefaultStrikeWindow
	}
	return &Extractor{Today: util.DateOnly(today), StrikeWindow: strikeWindow}
}

// Flatten returns the flattened row for raw, or false when raw is not
// admissible. Rejection is never an error: rows with a missing identifier,
// no traded price on either side, a strike too far from spot, an expired or
// malformed expiry are simply dropped.
func (e *Extractor) Flatten(raw models.OptionChainRow, spot float64) (models.FlattenedRow, bool) {
	ce, pe := raw.Call(), raw.Put()

	if ce.Identifier == "" || pe.Identifier == "" {
		return models.FlattenedRow{}, false
	}
	if ce.LastPrice == 0 && pe.LastPrice == 0 {
		return models.FlattenedRow{}, false
	}
	if math.Abs(raw.StrikePrice-spot) > e.StrikeWindow {
		return models.FlattenedRow{}, false
	}

	expiry, err := time.ParseInLocation(models.ExpiryLayout, raw.ExpiryDate, e.Today.Location())
	if err != nil || expiry.Before(e.Today) {
		return models.FlattenedRow{}, false
	}

	return models.FlattenedRow{
		StrikePrice:  raw.StrikePrice,
		ExpiryDate:   raw.ExpiryDate,
		IdentifierCE: ce.Identifier,
		IdentifierPE: pe.Identifier,
		CEOI:         ce.OpenInterest,
		PEOI:         pe.OpenInterest,
		CETotVol:     ce.TotalTradedVolume,
		PETotVol:     pe.TotalTradedVolume,
		CELTP:        ce.LastPrice,
		PELTP:        pe.LastPrice,
	}, true
}

// FlattenChain flattens every admissible row of chain, preserving order.
func (e *Extractor) FlattenChain(chain *models.OptionChain) []models.FlattenedRow {
	if chain == nil {
		return nil
	}
	spot := chain.Records.UnderlyingValue
	rows := make([]models.FlattenedRow, 0, len(chain.Records.Data))
	for _, raw := range chain.Records.Data {
		if row, ok := e.Flatten(raw, spot); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

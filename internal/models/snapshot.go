package models

import "time"

// SnapshotColumns is the exact CSV header of a daily snapshot file.
var SnapshotColumns = []string{
	"strikePrice",
	"expiryDate",
	"identifier_CE",
	"identifier_PE",
	"CE_OI",
	"PE_OI",
	"CE_TotVol",
	"PE_TotVol",
	"CE_LTP",
	"PE_LTP",
}

// FlattenedRow is one admissible option-chain entry persisted in a daily
// snapshot.
type FlattenedRow struct {
	StrikePrice  float64
	ExpiryDate   string
	IdentifierCE string
	IdentifierPE string
	CEOI         int64
	PEOI         int64
	CETotVol     int64
	PETotVol     int64
	CELTP        float64
	PELTP        float64
}

// Side selects the call or put columns of a row.
type Side string

const (
	// SideCall selects the CE columns.
	SideCall Side = "CE"
	// SidePut selects the PE columns.
	SidePut Side = "PE"
)

// Volume returns the total traded volume for the given side.
func (r FlattenedRow) Volume(side Side) int64 {
	if side == SideCall {
		return r.CETotVol
	}
	return r.PETotVol
}

// OpenInterest returns the open interest for the given side.
func (r FlattenedRow) OpenInterest(side Side) int64 {
	if side == SideCall {
		return r.CEOI
	}
	return r.PEOI
}

// LastPrice returns the last traded price for the given side.
func (r FlattenedRow) LastPrice(side Side) float64 {
	if side == SideCall {
		return r.CELTP
	}
	return r.PELTP
}

// Identifier returns the contract identifier for the given side.
func (r FlattenedRow) Identifier(side Side) string {
	if side == SideCall {
		return r.IdentifierCE
	}
	return r.IdentifierPE
}

// TrendSample is the top-strike row of one day in the trend window, narrowed
// to the selected side.
type TrendSample struct {
	Date         time.Time
	Identifier   string
	Expiry       string
	Volume       int64
	OpenInterest int64
	LastPrice    float64
}

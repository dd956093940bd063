package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("evening")
	require.NoError(t, err)
	assert.Equal(t, ModeEvening, m)
	assert.Equal(t, "Evening", m.Title())

	m, err = ParseMode("morning")
	require.NoError(t, err)
	assert.Equal(t, "Morning", m.Title())

	_, err = ParseMode("noon")
	assert.Error(t, err)
}

func TestFlattenedRowSideAccessors(t *testing.T) {
	row := FlattenedRow{
		StrikePrice:  48000,
		IdentifierCE: "OPTIDXBANKNIFTY26-06-2025CE48000.00",
		IdentifierPE: "OPTIDXBANKNIFTY26-06-2025PE48000.00",
		CEOI:         10, PEOI: 20,
		CETotVol: 100, PETotVol: 200,
		CELTP: 1.5, PELTP: 2.5,
	}

	assert.Equal(t, int64(100), row.Volume(SideCall))
	assert.Equal(t, int64(200), row.Volume(SidePut))
	assert.Equal(t, int64(10), row.OpenInterest(SideCall))
	assert.Equal(t, int64(20), row.OpenInterest(SidePut))
	assert.Equal(t, 1.5, row.LastPrice(SideCall))
	assert.Equal(t, 2.5, row.LastPrice(SidePut))
	assert.Equal(t, row.IdentifierCE, row.Identifier(SideCall))
	assert.Equal(t, row.IdentifierPE, row.Identifier(SidePut))
	assert.Equal(t, "Call", SideCall.Direction())
	assert.Equal(t, "Put", SidePut.Direction())
}

func TestOptionChainRowMissingSides(t *testing.T) {
	row := OptionChainRow{StrikePrice: 100}
	assert.Equal(t, OptionSide{}, row.Call())
	assert.Equal(t, OptionSide{}, row.Put())
}

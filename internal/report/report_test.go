package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/signal"
)

var session = time.Date(2025, time.June, 19, 0, 0, 0, 0, time.UTC)

func okSignal() signal.Signal {
	a := &signal.Analysis{
		Symbol:      "NIFTY",
		Status:      signal.StatusOK,
		PCR:         signal.PCR{Value: 0.5, Valid: true},
		Sentiment:   models.SentimentBullish,
		CallOI:      1234567,
		PutOI:       617283,
		Side:        models.SideCall,
		TopStrike:   24000,
		Expiry:      "26-Jun-2025",
		Identifier:  "OPTIDXNIFTY26-06-2025CE24000.00",
		VolumeTrend: models.TrendIncreasing,
		OITrend:     models.TrendIncreasing,
		VolumeSurge: true,
		SurgeMode:   signal.SurgeWindow,
		Samples: []models.TrendSample{
			{LastPrice: 20, Identifier: "OPTIDXNIFTY26-06-2025CE24000.00", Expiry: "26-Jun-2025"},
		},
	}
	return signal.Evaluate(a, signal.MarketContext{VIX: 15, VIXAvailable: true})
}

func TestRender_FullReport(t *testing.T) {
	in := Input{
		Mode:         models.ModeEvening,
		SessionDate:  session,
		VIX:          13.42,
		VIXAvailable: true,
		Global: []GlobalLine{
			{Name: "Dow", Quote: marketdata.GlobalQuote{Change: 400, Percent: 1.02}},
			{Name: "Nasdaq", Quote: marketdata.GlobalQuote{Err: marketdata.InsufficientData}},
		},
		GlobalScore: 1.02,
		HasGlobal:   true,
		Sections: []Section{
			{Symbol: "BANKNIFTY", Signal: signal.Signal{Analysis: &signal.Analysis{Status: signal.StatusUnavailable}},
				Warnings: []string{"Fetch failed for BANKNIFTY: timeout"}},
			{Symbol: "NIFTY", Signal: okSignal()},
		},
	}

	out := Render(in)

	assert.True(t, strings.HasPrefix(out, "# 📊 FnO Tracker Report – 2025-06-19 (Evening Mode)\n"))
	assert.Contains(t, out, "- 🌪️ India VIX: `13.42`")
	assert.Contains(t, out, "- 🌐 Dow: Change `400` (1.02%)")
	assert.Contains(t, out, "- ⚠️ Nasdaq: `Insufficient data`")
	assert.Contains(t, out, "- 🌍 Global Market Score: `1.02`")

	assert.Contains(t, out, "- ⚠️ Fetch failed for BANKNIFTY: timeout")
	assert.Contains(t, out, "- ⚠️ No snapshot available for BANKNIFTY; skipping analysis.")
	assert.Less(t, strings.Index(out, "## 📘 BANKNIFTY"), strings.Index(out, "## 📘 NIFTY"))

	assert.Contains(t, out, "- 🟦 Call OI: `1,234,567`")
	assert.Contains(t, out, "- 🔄 PCR: `0.50` → `Bullish`")
	assert.Contains(t, out, "- 📊 Strike `24000` Volume Trend: `Increasing`")
	assert.Contains(t, out, "- 🚀 Volume Surge: `true` (window)")
	assert.Contains(t, out, "- 🧮 Signal Score: `70` → `Moderate Signal`")
	assert.Contains(t, out, "### 🧭 Trade Suggestion for NIFTY: Moderate Signal ⇒ `Call` Option")
	assert.Contains(t, out, "- 💰 Entry: ₹20.00")
	assert.Contains(t, out, "- 🎯 Target: ₹30.00")
	assert.Contains(t, out, "- ⛔ Stop-Loss: ₹14.00")
}

func TestRender_VIXUnavailable(t *testing.T) {
	out := Render(Input{Mode: models.ModeMorning, SessionDate: session})
	assert.Contains(t, out, "(Morning Mode)")
	assert.Contains(t, out, "- 🌪️ India VIX: `N/A`")
	assert.NotContains(t, out, "Global Market Score")
}

func TestRender_StatusWarnings(t *testing.T) {
	tests := []struct {
		name     string
		analysis *signal.Analysis
		want     string
		absent   string
	}{
		{
			name:     "pcr undefined",
			analysis: &signal.Analysis{Status: signal.StatusPCRUndefined, Sentiment: models.SentimentUnknown},
			want:     "PCR undefined (no call open interest). Trend analysis skipped.",
			absent:   "Top Strike",
		},
		{
			name:     "no volume",
			analysis: &signal.Analysis{Status: signal.StatusNoData, PCR: signal.PCR{Value: 1, Valid: true}},
			want:     "No volume data for top strike.",
			absent:   "Top Strike",
		},
		{
			name: "insufficient",
			analysis: &signal.Analysis{Status: signal.StatusInsufficient, PCR: signal.PCR{Value: 1, Valid: true},
				TopStrike: 48000, SurgeMode: signal.SurgeSingleDay},
			want:   "Insufficient data for trend analysis.",
			absent: "Volume Trend",
		},
		{
			name: "weak trends",
			analysis: &signal.Analysis{Status: signal.StatusOK, PCR: signal.PCR{Value: 1, Valid: true},
				VolumeTrend: models.TrendFlat, OITrend: models.TrendIncreasing},
			want:   "Trends are weak. No trade suggested.",
			absent: "Trade Suggestion",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := signal.Evaluate(tt.analysis, signal.MarketContext{})
			out := Render(Input{Mode: models.ModeEvening, SessionDate: session,
				Sections: []Section{{Symbol: "NIFTY", Signal: sig}}})
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, tt.absent)
			assert.Contains(t, out, "Signal Score")
		})
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fno_evening_report_2025-06-19.md")
	in := Input{Mode: models.ModeEvening, SessionDate: session}

	require.NoError(t, WriteReport(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(in), string(data))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteReport_MissingDirectory(t *testing.T) {
	err := WriteReport(filepath.Join(t.TempDir(), "missing", "r.md"), Input{})
	assert.Error(t, err)
}

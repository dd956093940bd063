package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

func mustTempStorage(t *testing.T) (*CSVStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewCSVStorage(dir)
	require.NoError(t, err)
	return s, dir
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRows() []models.FlattenedRow {
	return []models.FlattenedRow{
		{
			StrikePrice: 48000, ExpiryDate: "26-Jun-2025",
			IdentifierCE: "OPTIDXBANKNIFTY26-06-2025CE48000.00", IdentifierPE: "OPTIDXBANKNIFTY26-06-2025PE48000.00",
			CEOI: 1200, PEOI: 800, CETotVol: 15000, PETotVol: 9000, CELTP: 215.35, PELTP: 180,
		},
		{
			StrikePrice: 48100, ExpiryDate: "26-Jun-2025",
			IdentifierCE: "CE48100", IdentifierPE: "PE48100",
			CEOI: 0, PEOI: 10, CETotVol: 1, PETotVol: 2, CELTP: 0, PELTP: 0.05,
		},
	}
}

func TestNewCSVStorage_CreatesDirectories(t *testing.T) {
	_, dir := mustTempStorage(t)

	for _, sub := range []string{"data", "performance"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s, dir := mustTempStorage(t)
	date := day(2025, time.June, 16)

	require.NoError(t, s.SaveSnapshot("BANKNIFTY", date, sampleRows()))

	path := filepath.Join(dir, "data", "BANKNIFTY_2025-06-16.csv")
	assert.Equal(t, path, s.SnapshotPath("BANKNIFTY", date))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	firstLine := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "strikePrice,expiryDate,identifier_CE,identifier_PE,CE_OI,PE_OI,CE_TotVol,PE_TotVol,CE_LTP,PE_LTP", firstLine)

	rows, err := s.LoadSnapshot("BANKNIFTY", date)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestSnapshot_RoundTripKeepsStringCellsVerbatim(t *testing.T) {
	s, _ := mustTempStorage(t)
	date := day(2025, time.June, 16)
	in := []models.FlattenedRow{
		{
			StrikePrice: 48000, ExpiryDate: " 26-Jun-2025 ",
			IdentifierCE: " CE48000", IdentifierPE: "PE48000\t",
			CEOI: 1, PEOI: 2, CETotVol: 3, PETotVol: 4, CELTP: 5, PELTP: 6,
		},
		{
			StrikePrice: 48100, ExpiryDate: "26-Jun-2025",
			IdentifierCE: "CE,48100", IdentifierPE: `PE "48100"`,
			CEOI: 7, PEOI: 8, CETotVol: 9, PETotVol: 10, CELTP: 11, PELTP: 12,
		},
		{
			StrikePrice: 48200, ExpiryDate: "26-Jun-2025",
			IdentifierCE: "   ", IdentifierPE: "PE48200",
			CEOI: 1, PEOI: 1, CETotVol: 1, PETotVol: 1, CELTP: 1, PELTP: 1,
		},
	}

	require.NoError(t, s.SaveSnapshot("BANKNIFTY", date, in))

	rows, err := s.LoadSnapshot("BANKNIFTY", date)
	require.NoError(t, err)
	assert.Equal(t, in, rows)
}

func TestSnapshot_NumericCellsTolerateSurroundingSpace(t *testing.T) {
	s, dir := mustTempStorage(t)
	date := day(2025, time.June, 16)
	content := "strikePrice,expiryDate,identifier_CE,identifier_PE,CE_OI,PE_OI,CE_TotVol,PE_TotVol,CE_LTP,PE_LTP\n" +
		" 48000 ,26-Jun-2025,CE48000,PE48000, 1200 ,800,15000,9000, 215.35,180\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "NIFTY_2025-06-16.csv"), []byte(content), 0o600))

	rows, err := s.LoadSnapshot("NIFTY", date)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 48000.0, rows[0].StrikePrice)
	assert.Equal(t, int64(1200), rows[0].CEOI)
	assert.Equal(t, 215.35, rows[0].CELTP)
	assert.Equal(t, "CE48000", rows[0].IdentifierCE)
}

func TestSnapshot_EmptyRowsWritesHeaderOnly(t *testing.T) {
	s, _ := mustTempStorage(t)
	date := day(2025, time.June, 16)

	require.NoError(t, s.SaveSnapshot("NIFTY", date, nil))

	rows, err := s.LoadSnapshot("NIFTY", date)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSnapshot_SaveReplacesPreviousFile(t *testing.T) {
	s, _ := mustTempStorage(t)
	date := day(2025, time.June, 16)

	require.NoError(t, s.SaveSnapshot("NIFTY", date, sampleRows()))
	require.NoError(t, s.SaveSnapshot("NIFTY", date, sampleRows()[:1]))

	rows, err := s.LoadSnapshot("NIFTY", date)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadSnapshot_NotFound(t *testing.T) {
	s, _ := mustTempStorage(t)

	_, err := s.LoadSnapshot("NIFTY", day(2025, time.June, 13))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestLoadSnapshot_TolerantParsing(t *testing.T) {
	s, dir := mustTempStorage(t)
	date := day(2025, time.June, 17)

	content := strings.Join([]string{
		// PE_LTP column missing, columns reordered
		"expiryDate,strikePrice,identifier_CE,identifier_PE,CE_OI,PE_OI,CE_TotVol,PE_TotVol,CE_LTP",
		"26-Jun-2025,24000,CE1,PE1,10,20,300,400,12.5",
		"26-Jun-2025,bad,CE2,PE2,10,20,300,400,12.5",
		"26-Jun-2025,24100,CE3,PE3,1200.0,20,300,400,3",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "NIFTY_2025-06-17.csv"), []byte(content), 0o600))

	rows, err := s.LoadSnapshot("NIFTY", date)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 24000.0, rows[0].StrikePrice)
	assert.Equal(t, int64(300), rows[0].CETotVol)
	assert.Equal(t, 12.5, rows[0].CELTP)
	assert.Zero(t, rows[0].PELTP)

	assert.Equal(t, "CE3", rows[1].IdentifierCE)
	assert.Equal(t, int64(1200), rows[1].CEOI)
}

func TestPerformanceLog_AppendAndLoad(t *testing.T) {
	s, _ := mustTempStorage(t)

	entries, err := s.LoadPerformance()
	require.NoError(t, err)
	assert.Empty(t, entries, "missing log reads as empty")

	first := models.PerformanceLogEntry{
		Date: "2025-06-17", Symbol: "NIFTY", Strike: 24000, Entry: 20, Target: 30, Stop: 14,
		Expiry: "26-Jun-2025", Score: 72.5, Outcome: models.OutcomePending,
	}
	second := first
	second.Symbol = "BANKNIFTY"
	second.Strike = 52000

	require.NoError(t, s.AppendPerformance(first))
	require.NoError(t, s.AppendPerformance(second))

	raw, err := os.ReadFile(s.PerformanceLogPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3, "header must be written exactly once")
	assert.Equal(t, "date,symbol,strike,entry,target,stop,expiry,score,outcome", lines[0])
	assert.Equal(t, "2025-06-17,NIFTY,24000,20,30,14,26-Jun-2025,72.5,Pending", lines[1])

	entries, err = s.LoadPerformance()
	require.NoError(t, err)
	assert.Equal(t, []models.PerformanceLogEntry{first, second}, entries)
}

func TestPerformanceLog_SkipsMalformedRows(t *testing.T) {
	s, _ := mustTempStorage(t)

	content := "date,symbol,strike,entry,target,stop,expiry,score,outcome\n" +
		"2025-06-16,NIFTY,24000,20,30,14,26-Jun-2025,85,Hit Target\n" +
		"2025-06-17,NIFTY,24000,20,30,14,26-Jun-2025,oops,Pending\n"
	require.NoError(t, os.WriteFile(s.PerformanceLogPath(), []byte(content), 0o600))

	entries, err := s.LoadPerformance()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutcomeHitTarget, entries[0].Outcome)
}

package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// PerformanceLogFile is the log's file name inside the performance directory.
const PerformanceLogFile = "performance_log.csv"

// CSVStorage keeps snapshots under {base}/data and the performance log under
// {base}/performance.
type CSVStorage struct {
	mu             sync.RWMutex
	dataDir        string
	performanceDir string
}

// NewCSVStorage creates the storage and its directories.
func NewCSVStorage(baseDir string) (*CSVStorage, error) {
	s := &CSVStorage{
		dataDir:        filepath.Join(baseDir, "data"),
		performanceDir: filepath.Join(baseDir, "performance"),
	}
	for _, dir := range []string{s.dataDir, s.performanceDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return s, nil
}

// SnapshotPath returns data/{SYMBOL}_{YYYY-MM-DD}.csv.
func (s *CSVStorage) SnapshotPath(symbol string, date time.Time) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.csv", symbol, date.Format(util.DateLayout)))
}

// PerformanceLogPath returns the location of the performance log.
func (s *CSVStorage) PerformanceLogPath() string {
	return filepath.Join(s.performanceDir, PerformanceLogFile)
}

// SaveSnapshot writes the snapshot to a temp file and renames it into place,
// so a rerun on the same day replaces the file atomically.
func (s *CSVStorage) SaveSnapshot(symbol string, date time.Time, rows []models.FlattenedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.SnapshotPath(symbol, date)
	tmpFile := path + ".tmp"

	f, err := os.Create(tmpFile) // #nosec G304 -- path built from configured base dir
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}

	if err := writeSnapshot(f, rows); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpFile)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	// Atomic rename
	return os.Rename(tmpFile, path)
}

func writeSnapshot(w io.Writer, rows []models.FlattenedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.SnapshotColumns); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			formatFloat(r.StrikePrice),
			r.ExpiryDate,
			r.IdentifierCE,
			r.IdentifierPE,
			strconv.FormatInt(r.CEOI, 10),
			strconv.FormatInt(r.PEOI, 10),
			strconv.FormatInt(r.CETotVol, 10),
			strconv.FormatInt(r.PETotVol, 10),
			formatFloat(r.CELTP),
			formatFloat(r.PELTP),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing snapshot row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadSnapshot reads a snapshot back. Rows whose numeric cells do not parse
// are skipped; absent columns read as zero values.
func (s *CSVStorage) LoadSnapshot(symbol string, date time.Time) ([]models.FlattenedRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.SnapshotPath(symbol, date)
	f, err := os.Open(path) // #nosec G304 -- path built from configured base dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", symbol, date.Format(util.DateLayout), ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readSnapshot(f)
}

func readSnapshot(r io.Reader) ([]models.FlattenedRow, error) {
	records, header, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	rows := make([]models.FlattenedRow, 0, len(records))
	for _, rec := range records {
		row, ok := parseSnapshotRecord(header, rec)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseSnapshotRecord(h columnIndex, rec []string) (models.FlattenedRow, bool) {
	var (
		row models.FlattenedRow
		p   cellParser
	)
	row.StrikePrice = p.float(h.get(rec, "strikePrice"))
	row.ExpiryDate = h.get(rec, "expiryDate")
	row.IdentifierCE = h.get(rec, "identifier_CE")
	row.IdentifierPE = h.get(rec, "identifier_PE")
	row.CEOI = p.int(h.get(rec, "CE_OI"))
	row.PEOI = p.int(h.get(rec, "PE_OI"))
	row.CETotVol = p.int(h.get(rec, "CE_TotVol"))
	row.PETotVol = p.int(h.get(rec, "PE_TotVol"))
	row.CELTP = p.float(h.get(rec, "CE_LTP"))
	row.PELTP = p.float(h.get(rec, "PE_LTP"))
	return row, p.err == nil
}

// AppendPerformance appends one entry, writing the header when the log is new.
func (s *CSVStorage) AppendPerformance(entry models.PerformanceLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.PerformanceLogPath()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640) // #nosec G304 -- path built from configured base dir
	if err != nil {
		return fmt.Errorf("opening performance log: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat performance log: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(models.PerformanceLogColumns); err != nil {
			return fmt.Errorf("writing performance header: %w", err)
		}
	}
	record := []string{
		entry.Date,
		entry.Symbol,
		formatFloat(entry.Strike),
		formatFloat(entry.Entry),
		formatFloat(entry.Target),
		formatFloat(entry.Stop),
		entry.Expiry,
		formatFloat(entry.Score),
		string(entry.Outcome),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("writing performance entry: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// LoadPerformance reads the whole log. A missing file is an empty log.
func (s *CSVStorage) LoadPerformance() ([]models.PerformanceLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.PerformanceLogPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening performance log: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, h, err := readRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading performance log: %w", err)
	}

	entries := make([]models.PerformanceLogEntry, 0, len(records))
	for _, rec := range records {
		var p cellParser
		e := models.PerformanceLogEntry{
			Date:    h.get(rec, "date"),
			Symbol:  h.get(rec, "symbol"),
			Strike:  p.float(h.get(rec, "strike")),
			Entry:   p.float(h.get(rec, "entry")),
			Target:  p.float(h.get(rec, "target")),
			Stop:    p.float(h.get(rec, "stop")),
			Expiry:  h.get(rec, "expiry"),
			Score:   p.float(h.get(rec, "score")),
			Outcome: models.Outcome(h.get(rec, "outcome")),
		}
		if p.err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// columnIndex maps header names to record positions.
type columnIndex map[string]int

func (h columnIndex) get(rec []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// readRecords returns the data records and the header index. An empty file
// yields no records.
func readRecords(r io.Reader) ([][]string, columnIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, columnIndex{}, nil
	}

	h := make(columnIndex, len(all[0]))
	for i, name := range all[0] {
		h[strings.TrimSpace(name)] = i
	}
	return all[1:], h, nil
}

// cellParser parses numeric cells, remembering the first failure. Blank
// cells read as zero. String cells are never trimmed.
type cellParser struct {
	err error
}

func (p *cellParser) float(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = err
		return 0
	}
	return v
}

func (p *cellParser) int(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// tolerate integral values written as floats, e.g. "1200.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			p.err = err
			return 0
		}
		return int64(f)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package storage persists daily option-chain snapshots and the cumulative
// performance log as CSV files.
package storage

import (
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

// SnapshotStore reads and writes one snapshot per (symbol, date).
type SnapshotStore interface {
	// SaveSnapshot replaces the snapshot for symbol on date.
	SaveSnapshot(symbol string, date time.Time, rows []models.FlattenedRow) error
	// LoadSnapshot returns the rows in file order, or ErrSnapshotNotFound.
	LoadSnapshot(symbol string, date time.Time) ([]models.FlattenedRow, error)
}

// PerformanceLog is the append-only record of suggested trades.
type PerformanceLog interface {
	AppendPerformance(entry models.PerformanceLogEntry) error
	// LoadPerformance returns every entry in file order; a missing log is empty.
	LoadPerformance() ([]models.PerformanceLogEntry, error)
}

// Interface combines both stores.
//
// Runs are single-process and sequential; the CSV implementation still
// guards its files with a mutex so one store can be shared across
// goroutines.
type Interface interface {
	SnapshotStore
	PerformanceLog
}

// NewStorage creates the CSV-backed storage rooted at baseDir.
func NewStorage(baseDir string) (Interface, error) {
	return NewCSVStorage(baseDir)
}

// Ensure implementations satisfy Interface
var (
	_ Interface = (*CSVStorage)(nil)
	_ Interface = (*MockStorage)(nil)
)

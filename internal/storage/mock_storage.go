package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// MockStorage implements Interface in memory for testing
type MockStorage struct {
	mu          sync.Mutex
	saveError   error
	loadError   error
	appendError error
	snapshots   map[string][]models.FlattenedRow
	performance []models.PerformanceLogEntry

	saveCallCount   int
	loadCallCount   int
	appendCallCount int
}

// NewMockStorage creates a new mock storage for testing
func NewMockStorage() *MockStorage {
	return &MockStorage{snapshots: make(map[string][]models.FlattenedRow)}
}

func snapshotKey(symbol string, date time.Time) string {
	return fmt.Sprintf("%s_%s", symbol, date.Format(util.DateLayout))
}

func (m *MockStorage) SaveSnapshot(symbol string, date time.Time, rows []models.FlattenedRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCallCount++
	if m.saveError != nil {
		return m.saveError
	}
	m.snapshots[snapshotKey(symbol, date)] = append([]models.FlattenedRow(nil), rows...)
	return nil
}

func (m *MockStorage) LoadSnapshot(symbol string, date time.Time) ([]models.FlattenedRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCallCount++
	if m.loadError != nil {
		return nil, m.loadError
	}
	rows, ok := m.snapshots[snapshotKey(symbol, date)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", snapshotKey(symbol, date), ErrSnapshotNotFound)
	}
	return append([]models.FlattenedRow(nil), rows...), nil
}

func (m *MockStorage) AppendPerformance(entry models.PerformanceLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCallCount++
	if m.appendError != nil {
		return m.appendError
	}
	m.performance = append(m.performance, entry)
	return nil
}

func (m *MockStorage) LoadPerformance() ([]models.PerformanceLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	return append([]models.PerformanceLogEntry(nil), m.performance...), nil
}

// Test helper methods

// SetSaveError makes SaveSnapshot fail
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes both load methods fail
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SetAppendError makes AppendPerformance fail
func (m *MockStorage) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendError = err
}

// PutSnapshot seeds a snapshot without counting a save.
func (m *MockStorage) PutSnapshot(symbol string, date time.Time, rows []models.FlattenedRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshotKey(symbol, date)] = rows
}

func (m *MockStorage) GetSaveCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCallCount
}

func (m *MockStorage) GetLoadCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCallCount
}

func (m *MockStorage) GetAppendCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendCallCount
}

// Package mock provides an in-memory implementation of database.DB for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jon4hz/episweep/database"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	records map[uint]*database.WatchRecord
	nextID  uint

	// Error simulation
	CreateWatchRecordError      error
	GetPendingWatchRecordsError error
	RemoveWatchRecordError      error
	CountPendingError           error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		records: make(map[uint]*database.WatchRecord),
		nextID:  1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[uint]*database.WatchRecord)
	m.nextID = 1

	m.CreateWatchRecordError = nil
	m.GetPendingWatchRecordsError = nil
	m.RemoveWatchRecordError = nil
	m.CountPendingError = nil
}

func (m *MockDB) CreateWatchRecord(_ context.Context, record *database.WatchRecord) error {
	if m.CreateWatchRecordError != nil {
		return m.CreateWatchRecordError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// conflict on the episode key is a no-op, like the sqlite implementation
	for _, existing := range m.records {
		if existing.SeriesName == record.SeriesName &&
			existing.Season == record.Season &&
			existing.Episode == record.Episode {
			return nil
		}
	}

	stored := *record
	stored.ID = m.nextID
	if stored.Status == "" {
		stored.Status = database.WatchStatusPending
	}
	m.records[m.nextID] = &stored
	record.ID = m.nextID
	m.nextID++
	return nil
}

func (m *MockDB) GetPendingWatchRecords(_ context.Context) ([]database.WatchRecord, error) {
	if m.GetPendingWatchRecordsError != nil {
		return nil, m.GetPendingWatchRecordsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]database.WatchRecord, 0, len(m.records))
	for _, record := range m.records {
		if record.Status == database.WatchStatusPending {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (m *MockDB) RemoveWatchRecord(_ context.Context, id uint) (bool, error) {
	if m.RemoveWatchRecordError != nil {
		return false, m.RemoveWatchRecordError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.records[id]
	if !exists || record.Status != database.WatchStatusPending {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *MockDB) CountPendingWatchRecords(ctx context.Context) (int64, error) {
	if m.CountPendingError != nil {
		return 0, m.CountPendingError
	}

	records, err := m.GetPendingWatchRecords(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (m *MockDB) Close() error {
	return nil
}

// GetRecord returns a stored record by ID for test assertions.
func (m *MockDB) GetRecord(id uint) (*database.WatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return nil, fmt.Errorf("record %d not found", id)
	}
	copied := *record
	return &copied, nil
}

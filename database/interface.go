package database

import (
	"context"
)

// DB defines the interface for database operations.
type DB interface {
	// CreateWatchRecord inserts a watch record unless one already exists
	// for the same episode key.
	CreateWatchRecord(ctx context.Context, record *WatchRecord) error
	// GetPendingWatchRecords retrieves all pending watch records.
	GetPendingWatchRecords(ctx context.Context) ([]WatchRecord, error)
	// RemoveWatchRecord removes a watch record if it is still pending and
	// reports whether a record was removed.
	RemoveWatchRecord(ctx context.Context, id uint) (bool, error)
	// CountPendingWatchRecords returns the number of pending watch records.
	CountPendingWatchRecords(ctx context.Context) (int64, error)

	// Close closes the database connection.
	Close() error
}

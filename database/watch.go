package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatchStatus represents the lifecycle state of a watch record.
type WatchStatus string

const (
	// WatchStatusPending means the episode was watched and is awaiting its
	// grace expiry. Once the episode was actioned in Sonarr the record is
	// removed, there is no terminal status in the table.
	WatchStatusPending WatchStatus = "pending"
)

// WatchRecord represents one watched episode awaiting cleanup.
// It deliberately does not embed gorm.Model: actioned records are removed for
// good, a soft-delete tombstone would block the unique episode index when the
// episode is re-watched later.
type WatchRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// RatingKey is the Plex rating key of the episode.
	RatingKey string `gorm:"index" json:"ratingKey"`
	// SeriesName matches the Sonarr series title.
	SeriesName string `gorm:"not null;uniqueIndex:idx_watch_episode" json:"seriesName"`
	// Season and Episode identify the episode within the series.
	Season  int32 `gorm:"not null;uniqueIndex:idx_watch_episode" json:"season"`
	Episode int32 `gorm:"not null;uniqueIndex:idx_watch_episode" json:"episode"`
	// WatchedAt is the time of the first scrobble-complete event.
	WatchedAt time.Time `gorm:"not null" json:"watchedAt"`
	// Status is the record status, currently always pending.
	Status WatchStatus `gorm:"not null;default:pending" json:"status"`
}

// CreateWatchRecord inserts a watch record unless one already exists for the
// same (series, season, episode) key. Repeat scrobbles of an already pending
// episode keep the original watched_at, the grace clock is not reset.
func (c *Client) CreateWatchRecord(ctx context.Context, record *WatchRecord) error {
	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "series_name"}, {Name: "season"}, {Name: "episode"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		log.Error("failed to create watch record", "series", record.SeriesName, "season", record.Season, "episode", record.Episode, "error", result.Error)
	}
	return result.Error
}

// GetPendingWatchRecords retrieves all pending watch records.
func (c *Client) GetPendingWatchRecords(ctx context.Context) ([]WatchRecord, error) {
	var records []WatchRecord
	result := c.db.WithContext(ctx).
		Where("status = ?", WatchStatusPending).
		Find(&records)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get pending watch records", "error", result.Error)
		return nil, result.Error
	}
	return records, nil
}

// RemoveWatchRecord removes a watch record if it is still pending.
// It returns true if a record was removed, false if the record was already
// gone, e.g. because a previous sweep actioned it.
func (c *Client) RemoveWatchRecord(ctx context.Context, id uint) (bool, error) {
	result := c.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, WatchStatusPending).
		Delete(&WatchRecord{})
	if result.Error != nil {
		log.Error("failed to remove watch record", "id", id, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountPendingWatchRecords returns the number of pending watch records.
func (c *Client) CountPendingWatchRecords(ctx context.Context) (int64, error) {
	var count int64
	result := c.db.WithContext(ctx).
		Model(&WatchRecord{}).
		Where("status = ?", WatchStatusPending).
		Count(&count)
	if result.Error != nil {
		log.Error("failed to count pending watch records", "error", result.Error)
		return 0, result.Error
	}
	return count, nil
}

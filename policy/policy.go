// Package policy resolves the effective grace settings for a series.
package policy

import (
	"time"

	"github.com/jon4hz/episweep/config"
)

// Resolution is the effective grace policy for a single series.
type Resolution struct {
	// GraceDays is the number of days after the watch date before the
	// episode becomes due.
	GraceDays int
	// UnmonitorAfterDelete indicates whether the episode should also be
	// unmonitored after its file was deleted.
	UnmonitorAfterDelete bool
}

// Resolve returns the effective grace settings for the given series.
// Per-series overrides win over the global defaults, a missing or partial
// override falls back to the global value per field.
func Resolve(seriesName string, cfg *config.Config) Resolution {
	res := Resolution{
		GraceDays:            cfg.GraceDays,
		UnmonitorAfterDelete: cfg.UnmonitorAfterDelete,
	}

	settings := cfg.GetSeriesSettings(seriesName)
	if settings == nil {
		return res
	}

	if settings.GraceDays != nil {
		res.GraceDays = *settings.GraceDays
	}
	if settings.UnmonitorAfterDelete != nil {
		res.UnmonitorAfterDelete = *settings.UnmonitorAfterDelete
	}

	if res.GraceDays < 0 {
		res.GraceDays = 0
	}

	return res
}

// DueAt returns the point in time at which a watch record becomes due under
// the given resolution. Grace is counted in calendar days: the record is due
// at midnight UTC graceDays days after the watch date.
func (r Resolution) DueAt(watchedAt time.Time) time.Time {
	day := watchedAt.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, r.GraceDays)
}

// IsDue reports whether a record watched at watchedAt is due at now.
func (r Resolution) IsDue(watchedAt, now time.Time) bool {
	return !now.UTC().Before(r.DueAt(watchedAt))
}

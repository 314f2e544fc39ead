package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/episweep/notify/ntfy"
	"github.com/jon4hz/episweep/policy"
)

// Sweep runs one full reconciliation pass over all pending watch records.
// Each due record is actioned in Sonarr and then removed, failures leave the
// record pending for the next sweep. No retry state is kept, every sweep is a
// fresh attempt.
func (e *Engine) Sweep(ctx context.Context) error {
	cfg := e.cfg.Get()
	now := e.now()

	e.storeMu.Lock()
	records, err := e.db.GetPendingWatchRecords(ctx)
	e.storeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to get pending watch records: %w", err)
	}

	log.Debug("Starting sweep", "pending", len(records))

	var deleted []ntfy.Episode
	var failures int
	for _, record := range records {
		res := policy.Resolve(record.SeriesName, cfg)
		if !res.IsDue(record.WatchedAt, now) {
			continue
		}

		if cfg.DryRun {
			log.Info("[Dry Run] Would delete episode", "series", record.SeriesName, "season", record.Season, "episode", record.Episode)
			continue
		}

		// The external calls and the record removal form a unit: the record
		// is only removed once Sonarr reported success, so a crash or failure
		// in between leaves it pending and the next sweep retries from scratch.
		if err := e.sonarr.DeleteEpisode(ctx, record.SeriesName, record.Season, record.Episode); err != nil {
			log.Error("Failed to delete episode, will retry on next sweep", "series", record.SeriesName, "season", record.Season, "episode", record.Episode, "error", err)
			failures++
			continue
		}

		if res.UnmonitorAfterDelete {
			if err := e.sonarr.UnmonitorEpisode(ctx, record.SeriesName, record.Season, record.Episode); err != nil {
				log.Error("Failed to unmonitor episode, will retry on next sweep", "series", record.SeriesName, "season", record.Season, "episode", record.Episode, "error", err)
				failures++
				continue
			}
		}

		e.storeMu.Lock()
		removed, err := e.db.RemoveWatchRecord(ctx, record.ID)
		e.storeMu.Unlock()
		if err != nil {
			log.Error("Failed to remove watch record", "series", record.SeriesName, "season", record.Season, "episode", record.Episode, "error", err)
			failures++
			continue
		}
		if !removed {
			// a concurrent sweep got there first, nothing left to do
			log.Debug("Watch record already removed", "series", record.SeriesName, "season", record.Season, "episode", record.Episode)
			continue
		}

		log.Info("Episode cleanup completed", "series", record.SeriesName, "season", record.Season, "episode", record.Episode)
		deleted = append(deleted, ntfy.Episode{
			SeriesName: record.SeriesName,
			Season:     record.Season,
			Episode:    record.Episode,
		})
	}

	if len(deleted) > 0 {
		e.sonarr.InvalidateCache(ctx)

		if e.ntfy != nil {
			if err := e.ntfy.SendSweepSummary(ctx, deleted); err != nil {
				log.Error("Failed to send sweep summary notification", "error", err)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d episodes failed to sweep", failures)
	}
	return nil
}

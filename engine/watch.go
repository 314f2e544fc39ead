package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/episweep/database"
	"github.com/jon4hz/episweep/policy"
)

// RecordWatch records a completed watch of an episode. It is idempotent: a
// repeat scrobble of an already pending episode is a no-op and does not reset
// the grace clock.
func (e *Engine) RecordWatch(ctx context.Context, seriesName string, season, episode int32, ratingKey string, watchedAt time.Time) error {
	seriesName = strings.TrimSpace(seriesName)
	if seriesName == "" {
		return fmt.Errorf("series name must not be empty")
	}

	record := &database.WatchRecord{
		RatingKey:  ratingKey,
		SeriesName: seriesName,
		Season:     season,
		Episode:    episode,
		WatchedAt:  watchedAt.UTC(),
		Status:     database.WatchStatusPending,
	}

	e.storeMu.Lock()
	err := e.db.CreateWatchRecord(ctx, record)
	e.storeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to record watch: %w", err)
	}

	cfg := e.cfg.Get()
	res := policy.Resolve(seriesName, cfg)
	log.Info("Recorded watched episode", "series", seriesName, "season", season, "episode", episode, "graceDays", res.GraceDays)

	// Same-day grace: kick the sweep right away instead of waiting for the
	// next tick. The webhook path never blocks on Sonarr, the job runs async.
	if res.GraceDays == 0 {
		if err := e.scheduler.RunJobNow(sweepJobID); err != nil {
			log.Warn("Failed to trigger immediate sweep", "error", err)
		}
	}

	return nil
}

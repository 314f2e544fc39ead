package sonarr

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	sonarrAPI "github.com/devopsarr/sonarr-go/sonarr"
)

// DeleteEpisode deletes the file of a single episode from Sonarr.
// A series, episode or file that no longer exists is treated as success so
// the sweep can retry safely after a partial failure.
func (c *Client) DeleteEpisode(ctx context.Context, seriesName string, season, episode int32) error {
	series, err := c.findSeries(ctx, seriesName)
	if err != nil {
		return err
	}
	if series == nil {
		log.Warn("Series not found in Sonarr", "series", seriesName)
		return nil
	}

	ep, err := c.findEpisode(ctx, series.GetId(), season, episode)
	if err != nil {
		return err
	}
	if ep == nil {
		log.Warn("Episode not found in Sonarr", "series", seriesName, "season", season, "episode", episode)
		return nil
	}

	if !ep.GetHasFile() || !ep.HasEpisodeFileId() {
		log.Info("No file to delete", "series", seriesName, "season", season, "episode", episode)
		return nil
	}

	resp, err := c.client.EpisodeFileAPI.DeleteEpisodeFile(c.authCtx(ctx), ep.GetEpisodeFileId()).Execute()
	if err != nil {
		// the file can disappear between lookup and delete, e.g. through a
		// manual deletion or a concurrent Sonarr task
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			log.Warn("Episode file already gone", "series", seriesName, "season", season, "episode", episode)
			return nil
		}
		return fmt.Errorf("failed to delete episode file %d: %w", ep.GetEpisodeFileId(), err)
	}
	defer resp.Body.Close() //nolint: errcheck

	log.Info("Deleted episode file from Sonarr", "series", seriesName, "season", season, "episode", episode)
	return nil
}

// UnmonitorEpisode marks a single episode as unmonitored in Sonarr so it
// doesn't get redownloaded. An episode that no longer exists is treated as
// success.
func (c *Client) UnmonitorEpisode(ctx context.Context, seriesName string, season, episode int32) error {
	series, err := c.findSeries(ctx, seriesName)
	if err != nil {
		return err
	}
	if series == nil {
		log.Warn("Series not found in Sonarr", "series", seriesName)
		return nil
	}

	ep, err := c.findEpisode(ctx, series.GetId(), season, episode)
	if err != nil {
		return err
	}
	if ep == nil {
		log.Warn("Episode not found in Sonarr", "series", seriesName, "season", season, "episode", episode)
		return nil
	}

	if !ep.GetMonitored() {
		return nil
	}

	monitored := false
	resource := sonarrAPI.NewEpisodesMonitoredResource()
	resource.SetEpisodeIds([]int32{ep.GetId()})
	resource.SetMonitored(monitored)

	_, err = c.client.EpisodeAPI.PutEpisodeMonitor(c.authCtx(ctx)).
		EpisodesMonitoredResource(*resource).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to unmonitor episode S%02dE%02d of series %s: %w", season, episode, seriesName, err)
	}

	log.Info("Unmonitored episode in Sonarr", "series", seriesName, "season", season, "episode", episode)
	return nil
}

// InvalidateCache drops the cached series list, e.g. after deletions.
func (c *Client) InvalidateCache(ctx context.Context) {
	if err := c.seriesCache.Clear(ctx); err != nil {
		log.Debug("Failed to clear Sonarr series cache", "error", err)
	}
}

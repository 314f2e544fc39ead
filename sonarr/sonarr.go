// Package sonarr wraps the Sonarr v3 API for episode level cleanup.
package sonarr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	sonarrAPI "github.com/devopsarr/sonarr-go/sonarr"
	"github.com/jon4hz/episweep/cache"
	"github.com/jon4hz/episweep/config"
)

// Client talks to a Sonarr server. All operations are idempotent: acting on
// an episode that is already gone counts as success.
type Client struct {
	client      *sonarrAPI.APIClient
	cfg         *config.Store
	seriesCache *cache.PrefixedCache[[]sonarrAPI.SeriesResource]
}

// New creates a new Sonarr client from the current config.
// The server host is fixed at startup, the API key is read from the config
// store on every request so it can be hot reloaded.
func New(cfg *config.Store) *Client {
	scfg := sonarrAPI.NewConfiguration()

	url := cfg.Get().Sonarr.URL
	if strings.HasPrefix(url, "http://") {
		scfg.Scheme = "http"
		url = strings.TrimPrefix(url, "http://")
	} else if strings.HasPrefix(url, "https://") {
		scfg.Scheme = "https"
		url = strings.TrimPrefix(url, "https://")
	}
	scfg.Host = url

	return &Client{
		client:      sonarrAPI.NewAPIClient(scfg),
		cfg:         cfg,
		seriesCache: cache.NewPrefixedCache[[]sonarrAPI.SeriesResource]("sonarr-series-", cache.DefaultTTL),
	}
}

func (c *Client) authCtx(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(
		ctx,
		sonarrAPI.ContextAPIKeys,
		map[string]sonarrAPI.APIKey{
			"X-Api-Key": {Key: c.cfg.Get().Sonarr.APIKey},
		},
	)
}

// getSeries retrieves all series from Sonarr, using the series cache.
func (c *Client) getSeries(ctx context.Context) ([]sonarrAPI.SeriesResource, error) {
	cached, err := c.seriesCache.Get(ctx, "all")
	if err == nil && len(cached) != 0 {
		return cached, nil
	}

	series, resp, err := c.client.SeriesAPI.ListSeries(c.authCtx(ctx)).IncludeSeasonImages(false).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list Sonarr series: %w", err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if err := c.seriesCache.Set(ctx, "all", series); err != nil {
		log.Warnf("Failed to cache Sonarr series: %v", err)
	}

	return series, nil
}

// findSeries looks up a series by title, case-insensitively.
// It returns nil if no series matches.
func (c *Client) findSeries(ctx context.Context, seriesName string) (*sonarrAPI.SeriesResource, error) {
	series, err := c.getSeries(ctx)
	if err != nil {
		return nil, err
	}

	title := strings.ToLower(strings.TrimSpace(seriesName))
	for _, s := range series {
		if strings.ToLower(s.GetTitle()) == title {
			return &s, nil
		}
	}
	return nil, nil
}

// findEpisode looks up an episode by season and episode number.
// It returns nil if no episode matches.
func (c *Client) findEpisode(ctx context.Context, seriesID, season, episode int32) (*sonarrAPI.EpisodeResource, error) {
	episodes, resp, err := c.client.EpisodeAPI.ListEpisode(c.authCtx(ctx)).
		SeriesId(seriesID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list Sonarr episodes: %w", err)
	}
	defer resp.Body.Close() //nolint: errcheck

	for _, ep := range episodes {
		if ep.GetSeasonNumber() == season && ep.GetEpisodeNumber() == episode {
			return &ep, nil
		}
	}
	return nil, nil
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jon4hz/episweep/config"
	"github.com/jon4hz/episweep/database"
	"github.com/jon4hz/episweep/scheduler"
)

// episodeKey identifies one episode in gateway call records.
type episodeKey struct {
	Series  string
	Season  int32
	Episode int32
}

// mockGateway is a mock implementation of Gateway for testing.
type mockGateway struct {
	mu sync.Mutex

	DeleteCalls    []episodeKey
	UnmonitorCalls []episodeKey
	Invalidations  int

	// Error simulation
	DeleteEpisodeError    error
	UnmonitorEpisodeError error
}

func (m *mockGateway) DeleteEpisode(_ context.Context, seriesName string, season, episode int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteEpisodeError != nil {
		return m.DeleteEpisodeError
	}
	m.DeleteCalls = append(m.DeleteCalls, episodeKey{seriesName, season, episode})
	return nil
}

func (m *mockGateway) UnmonitorEpisode(_ context.Context, seriesName string, season, episode int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UnmonitorEpisodeError != nil {
		return m.UnmonitorEpisodeError
	}
	m.UnmonitorCalls = append(m.UnmonitorCalls, episodeKey{seriesName, season, episode})
	return nil
}

func (m *mockGateway) InvalidateCache(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations++
}

// newTestEngine builds an engine with a fixed clock and no registered jobs,
// so nothing runs in the background during tests.
func newTestEngine(cfg *config.Config, db database.DB, gateway Gateway, now time.Time) *Engine {
	sched, err := scheduler.New()
	if err != nil {
		panic(err)
	}
	return &Engine{
		cfg:       config.NewStore(cfg, ""),
		db:        db,
		sonarr:    gateway,
		scheduler: sched,
		now:       func() time.Time { return now },
	}
}

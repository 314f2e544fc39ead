package engine

import (
	"context"
	"testing"
	"time"

	"github.com/jon4hz/episweep/config"
	dbmock "github.com/jon4hz/episweep/database/mock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// day returns midnight UTC n days after day0.
func day(n int) time.Time {
	return day0.Truncate(24*time.Hour).AddDate(0, 0, n)
}

func TestSweepDueBoundary(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{GraceDays: 2}

	t.Run("not due before the boundary", func(t *testing.T) {
		db := dbmock.NewMockDB()
		gateway := &mockGateway{}
		e := newTestEngine(cfg, db, gateway, day(2).Add(-time.Second))

		require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
		require.NoError(t, e.Sweep(ctx))

		assert.Empty(t, gateway.DeleteCalls)
		records, err := e.PendingWatches(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("due on the boundary", func(t *testing.T) {
		db := dbmock.NewMockDB()
		gateway := &mockGateway{}
		e := newTestEngine(cfg, db, gateway, day(2))

		require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
		require.NoError(t, e.Sweep(ctx))

		assert.Equal(t, []episodeKey{{"Foo", 1, 1}}, gateway.DeleteCalls)
		records, err := e.PendingWatches(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestSweepAtMostOnce(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}
	e := newTestEngine(&config.Config{GraceDays: 0}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))

	require.NoError(t, e.Sweep(ctx))
	require.NoError(t, e.Sweep(ctx))

	// the second sweep finds no pending record left
	assert.Len(t, gateway.DeleteCalls, 1)
}

func TestSweepFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{DeleteEpisodeError: assert.AnError}
	e := newTestEngine(&config.Config{GraceDays: 0}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))

	require.Error(t, e.Sweep(ctx))
	records, err := e.PendingWatches(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// once the gateway recovers, the next sweep finishes the job
	gateway.DeleteEpisodeError = nil
	require.NoError(t, e.Sweep(ctx))

	assert.Len(t, gateway.DeleteCalls, 1)
	records, err = e.PendingWatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepUnmonitorComposesWithDelete(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}
	e := newTestEngine(&config.Config{GraceDays: 0, UnmonitorAfterDelete: true}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.NoError(t, e.Sweep(ctx))

	// delete first, then additionally unmonitor
	assert.Equal(t, []episodeKey{{"Foo", 1, 1}}, gateway.DeleteCalls)
	assert.Equal(t, []episodeKey{{"Foo", 1, 1}}, gateway.UnmonitorCalls)
}

func TestSweepNoUnmonitorWhenDisabled(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}
	e := newTestEngine(&config.Config{GraceDays: 0, UnmonitorAfterDelete: false}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.NoError(t, e.Sweep(ctx))

	assert.Len(t, gateway.DeleteCalls, 1)
	assert.Empty(t, gateway.UnmonitorCalls)
}

func TestSweepUnmonitorFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{UnmonitorEpisodeError: assert.AnError}
	e := newTestEngine(&config.Config{GraceDays: 0, UnmonitorAfterDelete: true}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.Error(t, e.Sweep(ctx))

	// the record stays pending so both actions get retried together
	records, err := e.PendingWatches(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	gateway.UnmonitorEpisodeError = nil
	require.NoError(t, e.Sweep(ctx))

	// the delete retry is an idempotent no-op on the Sonarr side
	assert.Len(t, gateway.DeleteCalls, 2)
	assert.Len(t, gateway.UnmonitorCalls, 1)
	records, err = e.PendingWatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepDryRun(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}
	e := newTestEngine(&config.Config{GraceDays: 0, DryRun: true}, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.NoError(t, e.Sweep(ctx))

	assert.Empty(t, gateway.DeleteCalls)
	records, err := e.PendingWatches(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSweepStoreError(t *testing.T) {
	db := dbmock.NewMockDB()
	db.GetPendingWatchRecordsError = assert.AnError
	e := newTestEngine(&config.Config{GraceDays: 0}, db, &mockGateway{}, day0)

	err := e.Sweep(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSweepConfigChangeAffectsPending(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}
	e := newTestEngine(&config.Config{GraceDays: 30}, db, gateway, day(2))

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.NoError(t, e.Sweep(ctx))
	require.Empty(t, gateway.DeleteCalls)

	// shortening the grace period applies to records that are still pending
	e.cfg = config.NewStore(&config.Config{GraceDays: 1}, "")
	require.NoError(t, e.Sweep(ctx))
	assert.Len(t, gateway.DeleteCalls, 1)
}

// Scenario: global grace of 2 days, series "Foo" overridden to same-day
// deletion with unmonitoring, series "Bar" uses the default.
func TestSweepScenario(t *testing.T) {
	ctx := context.Background()
	db := dbmock.NewMockDB()
	gateway := &mockGateway{}

	cfg := &config.Config{
		GraceDays:            2,
		UnmonitorAfterDelete: true,
		SeriesSettings: map[string]*config.SeriesSettings{
			"Foo": {GraceDays: lo.ToPtr(0)},
		},
	}
	e := newTestEngine(cfg, db, gateway, day0)

	require.NoError(t, e.RecordWatch(ctx, "Foo", 1, 1, "plex-1", day0))
	require.NoError(t, e.RecordWatch(ctx, "Bar", 2, 3, "plex-2", day0))

	// day 0: Foo is due immediately, Bar is not
	require.NoError(t, e.Sweep(ctx))
	assert.Equal(t, []episodeKey{{"Foo", 1, 1}}, gateway.DeleteCalls)
	assert.Equal(t, []episodeKey{{"Foo", 1, 1}}, gateway.UnmonitorCalls)

	// day 1: Bar is still not due
	e.now = func() time.Time { return day(1) }
	require.NoError(t, e.Sweep(ctx))
	assert.Len(t, gateway.DeleteCalls, 1)

	// day 2: Bar becomes due
	e.now = func() time.Time { return day(2) }
	require.NoError(t, e.Sweep(ctx))
	assert.Equal(t, []episodeKey{{"Foo", 1, 1}, {"Bar", 2, 3}}, gateway.DeleteCalls)

	records, err := e.PendingWatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

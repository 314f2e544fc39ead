// Package engine contains the scheduling core of episweep: it records watched
// episodes and periodically reconciles them against the grace policy.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/jon4hz/episweep/config"
	"github.com/jon4hz/episweep/database"
	"github.com/jon4hz/episweep/notify/ntfy"
	"github.com/jon4hz/episweep/scheduler"
)

const sweepJobID = "sweep"

// Gateway is the narrow interface to the external library manager.
// Implementations must be idempotent per episode: acting on an episode that
// is already gone counts as success.
type Gateway interface {
	DeleteEpisode(ctx context.Context, seriesName string, season, episode int32) error
	UnmonitorEpisode(ctx context.Context, seriesName string, season, episode int32) error
	InvalidateCache(ctx context.Context)
}

// Engine is the main engine for episweep. It owns all watch record mutations
// and is the sole caller of the Sonarr gateway.
type Engine struct {
	cfg       *config.Store
	db        database.DB
	sonarr    Gateway
	ntfy      *ntfy.Client
	scheduler *scheduler.Scheduler

	// storeMu serializes the read-decide-write sections on the watch record
	// store. It is never held across a Sonarr call.
	storeMu sync.Mutex

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// New creates a new Engine instance.
func New(cfg *config.Store, db database.DB, gateway Gateway) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	var ntfyClient *ntfy.Client
	if c := cfg.Get(); c.Ntfy != nil && c.Ntfy.Enabled {
		ntfyClient = ntfy.NewClient(c.Ntfy)
	}

	engine := &Engine{
		cfg:       cfg,
		db:        db,
		sonarr:    gateway,
		ntfy:      ntfyClient,
		scheduler: sched,
		now:       time.Now,
	}

	if err := engine.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return engine, nil
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	// The sweep interval is fixed at startup. Grace settings hot reload, the
	// interval itself needs a restart to change.
	interval := time.Duration(e.cfg.Get().SweepInterval) * time.Minute
	sweepJobDef := gocron.DurationJob(interval)
	if err := e.scheduler.AddSingletonJob(
		sweepJobID,
		"Episode Sweep",
		"Deletes watched episodes whose grace period has expired",
		interval.String(),
		sweepJobDef,
		e.Sweep,
		true,
	); err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully", "sweepInterval", interval)
	return nil
}

// Run starts the engine and all its background jobs.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.scheduler.Start()

	<-ctx.Done()
	return nil
}

// Close stops the engine. An in-flight sweep is allowed to finish.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// TriggerSweep manually triggers the sweep job.
func (e *Engine) TriggerSweep() error {
	return e.scheduler.RunJobNow(sweepJobID)
}

// Jobs returns information about all scheduled jobs.
func (e *Engine) Jobs() []scheduler.JobInfo {
	return e.scheduler.Jobs()
}

// PendingWatches returns all pending watch records.
func (e *Engine) PendingWatches(ctx context.Context) ([]database.WatchRecord, error) {
	return e.db.GetPendingWatchRecords(ctx)
}

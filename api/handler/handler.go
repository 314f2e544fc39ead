// Package handler contains the gin handlers of the episweep API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/episweep/api/models"
	"github.com/jon4hz/episweep/database"
	"github.com/jon4hz/episweep/scheduler"
)

// Engine is the part of the scheduling core the API needs.
type Engine interface {
	RecordWatch(ctx context.Context, seriesName string, season, episode int32, ratingKey string, watchedAt time.Time) error
	PendingWatches(ctx context.Context) ([]database.WatchRecord, error)
	TriggerSweep() error
	Jobs() []scheduler.JobInfo
}

// Handler handles all API requests.
type Handler struct {
	engine Engine
}

// New creates a new handler.
func New(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// Webhook ingests Plex webhook events. It always acknowledges with 200, the
// caller must never block on or learn about downstream state.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := parsePayload(c)
	if err != nil {
		log.Warn("Failed to parse webhook payload", "error", err)
		c.Status(http.StatusOK)
		return
	}

	if payload.Event != models.EventScrobble {
		log.Debug("Ignoring webhook event", "event", payload.Event)
		c.Status(http.StatusOK)
		return
	}

	md := payload.Metadata
	if md.LibrarySectionType != models.SectionTypeShow {
		log.Debug("Ignoring non-show media item", "type", md.LibrarySectionType)
		c.Status(http.StatusOK)
		return
	}

	watchedAt := time.Now().UTC()
	if md.LastViewedAt > 0 {
		watchedAt = time.Unix(md.LastViewedAt, 0).UTC()
	}

	log.Info("Scrobble received", "series", md.GrandparentTitle, "season", md.ParentIndex, "episode", md.Index)

	if err := h.engine.RecordWatch(c.Request.Context(), md.GrandparentTitle, md.ParentIndex, md.Index, md.RatingKey, watchedAt); err != nil {
		// still a generic ack, failures are logged server side only
		log.Error("Failed to record watch", "series", md.GrandparentTitle, "season", md.ParentIndex, "episode", md.Index, "error", err)
	}

	c.Status(http.StatusOK)
}

// parsePayload extracts the Plex payload from the request. Plex sends either
// a JSON body or a multipart form with a payload field.
func parsePayload(c *gin.Context) (*models.PlexWebhookPayload, error) {
	var payload models.PlexWebhookPayload

	contentType := c.GetHeader("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}

	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Health reports service health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Pending lists all pending watch records.
func (h *Handler) Pending(c *gin.Context) {
	records, err := h.engine.PendingWatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending watch records"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// TriggerSweep manually triggers the sweep job.
func (h *Handler) TriggerSweep(c *gin.Context) {
	if err := h.engine.TriggerSweep(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger sweep"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sweep triggered"})
}

// Jobs lists all scheduled jobs.
func (h *Handler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Jobs())
}

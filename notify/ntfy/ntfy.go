// Package ntfy sends push notifications about deleted episodes via ntfy.
package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/episweep/config"
)

// Client represents a ntfy notification client.
type Client struct {
	serverURL  string
	topic      string
	username   string
	password   string
	token      string
	httpClient *http.Client
}

// Message represents a ntfy message.
type Message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NewClient creates a new ntfy client.
func NewClient(cfg *config.NtfyConfig) *Client {
	if cfg.ServerURL != "" {
		if _, err := url.Parse(cfg.ServerURL); err != nil {
			log.Errorf("Invalid ntfy server URL: %v", err)
		}
	}

	return &Client{
		serverURL: cfg.ServerURL,
		topic:     cfg.Topic,
		username:  cfg.Username,
		password:  cfg.Password,
		token:     cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage sends a message to ntfy.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if c.topic != "" {
		msg.Topic = c.topic
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.serverURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Markdown", "yes")

	// Authentication: Token takes precedence over username/password
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy server returned status %d", resp.StatusCode)
	}

	log.Debug("Sent ntfy notification", "topic", msg.Topic, "title", msg.Title)
	return nil
}

// Episode represents a deleted episode for notifications.
type Episode struct {
	SeriesName string
	Season     int32
	Episode    int32
}

// SendSweepSummary sends a summary of the episodes removed by a sweep.
func (c *Client) SendSweepSummary(ctx context.Context, episodes []Episode) error {
	if len(episodes) == 0 {
		log.Debug("No episodes deleted, skipping ntfy notification")
		return nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗑️ **Deleted Episodes:** %d\n\n", len(episodes)))
	for _, ep := range episodes {
		b.WriteString(fmt.Sprintf("  • %s S%02dE%02d\n", ep.SeriesName, ep.Season, ep.Episode))
	}

	msg := Message{
		Title:    "🧹 Episweep Summary",
		Message:  b.String(),
		Priority: 3,
		Tags:     []string{"broom", "episweep"},
	}

	return c.SendMessage(ctx, msg)
}

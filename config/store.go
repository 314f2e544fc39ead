package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Store holds the active configuration and supports hot reloading from file.
// Readers always see a complete config snapshot, a reload swaps the whole
// document at once.
type Store struct {
	mu      sync.RWMutex
	current *Config

	path    string
	watcher *fsnotify.Watcher
}

// NewStore creates a new config store with the given initial config.
// path is the config file to watch for changes and may be empty if hot
// reloading is not wanted.
func NewStore(initial *Config, path string) *Store {
	return &Store{
		current: initial,
		path:    path,
	}
}

// Get returns the current config snapshot.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload reloads the configuration from file and validates it.
// If loading or validation fails, the previous config stays active and an
// error is returned.
func (s *Store) Reload() error {
	newCfg, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	s.mu.Lock()
	s.current = newCfg
	s.mu.Unlock()

	log.Info("Reloaded config", "file", s.path)
	return nil
}

// Watch starts watching the config file for changes until ctx is canceled.
// If no config file path is set, this is a no-op.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		log.Debug("No config file path set, hot reloading disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	s.watcher = watcher

	if err := watcher.Add(s.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	log.Info("Watching config file for changes", "file", s.path)
	go s.watchLoop(ctx)

	return nil
}

// watchLoop is the main file watcher loop.
func (s *Store) watchLoop(ctx context.Context) {
	// Debounce rapid successive events, editors usually fire more than one
	// write per save.
	const debounce = 500 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			log.Debug("Config watcher stopped")
			_ = s.watcher.Close()
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover vim, nano and plain redirects
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					if err := s.Reload(); err != nil {
						log.Error("Failed to reload config, keeping previous config", "error", err)
					}
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Error("Config watcher error", "error", err)
		}
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the Episweep server and its dependencies.
type Config struct {
	// Listen is the address the Episweep server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// SweepInterval is the interval in minutes between two sweep runs.
	SweepInterval int `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	// GraceDays is the number of days an episode stays around after being watched.
	GraceDays int `yaml:"grace_days" mapstructure:"grace_days"`
	// UnmonitorAfterDelete indicates whether episodes should also be unmonitored
	// in Sonarr after their file was deleted.
	UnmonitorAfterDelete bool `yaml:"unmonitor_after_delete" mapstructure:"unmonitor_after_delete"`
	// DryRun indicates whether the sweep should only log what it would do.
	DryRun bool `yaml:"dry_run" mapstructure:"dry_run"`
	// SeriesSettings maps a series title to its per-series overrides.
	SeriesSettings map[string]*SeriesSettings `yaml:"series_settings" mapstructure:"series_settings"`
	// Sonarr holds the configuration for the Sonarr server.
	Sonarr *SonarrConfig `yaml:"sonarr" mapstructure:"sonarr"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Ntfy holds the ntfy notification configuration.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
}

// SeriesSettings holds per-series overrides. Nil fields mean "use the global
// default", which is why they are pointers.
type SeriesSettings struct {
	// GraceDays overrides the global grace period for this series.
	GraceDays *int `yaml:"grace_days" mapstructure:"grace_days"`
	// UnmonitorAfterDelete overrides the global unmonitor behavior for this series.
	UnmonitorAfterDelete *bool `yaml:"unmonitor_after_delete" mapstructure:"unmonitor_after_delete"`
}

// SonarrConfig holds the configuration for the Sonarr server.
type SonarrConfig struct {
	// URL is the base URL of the Sonarr server.
	URL string `yaml:"url" mapstructure:"url"`
	// APIKey is the API key for the Sonarr server.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic to publish notifications to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username is the ntfy username for authentication.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the ntfy password for authentication.
	Password string `yaml:"password" mapstructure:"password"`
	// Token is the ntfy token for authentication.
	Token string `yaml:"token" mapstructure:"token"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadFile(path)
	return cfg, err
}

// LoadFile works like Load but also returns the config file that was used.
// The returned path is empty when only defaults and environment variables
// applied.
func LoadFile(path string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("EPISWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.episweep")
		v.AddConfigPath("/etc/episweep")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, "", fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with EPISWEEP_ prefix will override config file values")
	}

	if err := Validate(&c); err != nil {
		return nil, "", err
	}

	return &c, v.ConfigFileUsed(), nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("sweep_interval", 15)
	v.SetDefault("grace_days", 2)
	v.SetDefault("unmonitor_after_delete", true)
	v.SetDefault("dry_run", false)
	v.SetDefault("database.path", "./data/episweep.db")

	// Ntfy defaults
	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
}

// Validate validates the configuration.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing episweep config")
	}

	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if c.GraceDays < 0 {
		return fmt.Errorf("grace days must not be negative")
	}

	if c.Sonarr == nil {
		return fmt.Errorf("missing sonarr config")
	}
	if c.Sonarr.URL == "" {
		return fmt.Errorf("sonarr URL is required")
	}
	if c.Sonarr.APIKey == "" {
		return fmt.Errorf("sonarr API key is required")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	for series, settings := range c.SeriesSettings {
		if settings == nil {
			continue
		}
		if settings.GraceDays != nil && *settings.GraceDays < 0 {
			return fmt.Errorf("grace days for series %q must not be negative", series)
		}
	}

	if c.Ntfy != nil && c.Ntfy.Enabled && c.Ntfy.Topic == "" {
		return fmt.Errorf("ntfy topic is required when ntfy is enabled")
	}

	return nil
}

// GetSeriesSettings returns the overrides for a specific series.
// This function handles the case-sensitivity issue where viper normalizes map
// keys to lowercase, but series titles from Plex are case-sensitive.
func (c *Config) GetSeriesSettings(seriesName string) *SeriesSettings {
	if c.SeriesSettings == nil {
		return nil
	}

	// First try exact match (for backward compatibility)
	if settings, exists := c.SeriesSettings[seriesName]; exists {
		return settings
	}

	seriesNameLower := strings.ToLower(seriesName)
	for key, settings := range c.SeriesSettings {
		if strings.ToLower(key) == seriesNameLower {
			return settings
		}
	}

	return nil
}

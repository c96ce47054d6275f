package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Proxy         ProxyConfig         `toml:"proxy"`
	Storage       StorageConfig       `toml:"storage"`
	Database      DatabaseConfig      `toml:"database"`
	Server        ServerConfig        `toml:"server"`
	Playback      PlaybackConfig      `toml:"playback"`
	Notifications NotificationsConfig `toml:"notifications"`
	Settings      SettingsConfig      `toml:"settings"`
}

// ProxyConfig points at the YouTube Music data proxy.
type ProxyConfig struct {
	BaseURL     string  `toml:"base_url"`
	HeadersPath string  `toml:"headers_path"`
	RateLimit   float64 `toml:"rate_limit"`
}

// StorageConfig selects the durable key-value store backing persisted state.
type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlaybackConfig holds playback coordinator defaults.
type PlaybackConfig struct {
	AutoAdvanceOnError bool    `toml:"auto_advance_on_error"`
	RecoveryDelayMS    int     `toml:"recovery_delay_ms"`
	Volume             float64 `toml:"volume"`
}

// NotificationsConfig holds notification broadcaster defaults.
type NotificationsConfig struct {
	DurationMS int  `toml:"duration_ms"`
	Desktop    bool `toml:"desktop"`
}

// SettingsConfig holds settings coordinator options.
type SettingsConfig struct {
	AutosaveIntervalMS int `toml:"autosave_interval_ms"`
}

// RecoveryDelay is the auto-skip delay after a playback error.
func (p PlaybackConfig) RecoveryDelay() time.Duration {
	return time.Duration(p.RecoveryDelayMS) * time.Millisecond
}

// Duration is the default notification lifetime.
func (n NotificationsConfig) Duration() time.Duration {
	return time.Duration(n.DurationMS) * time.Millisecond
}

// AutosaveInterval is the period between settings saves; zero disables autosave.
func (s SettingsConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveIntervalMS) * time.Millisecond
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects values the coordinators cannot work with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "bolt", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("%w: playback.volume must be within [0,1]", ErrInvalidConfig)
	}
	if c.Playback.RecoveryDelayMS < 0 || c.Notifications.DurationMS < 0 || c.Settings.AutosaveIntervalMS < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

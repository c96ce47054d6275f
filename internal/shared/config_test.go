package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Proxy.BaseURL != "http://127.0.0.1:8080" {
			t.Errorf("expected proxy base URL http://127.0.0.1:8080, got %s", config.Proxy.BaseURL)
		}

		if config.Storage.Driver != "bolt" {
			t.Errorf("expected storage driver bolt, got %s", config.Storage.Driver)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if got := config.Playback.RecoveryDelay(); got != 3*time.Second {
			t.Errorf("expected recovery delay 3s, got %v", got)
		}

		if got := config.Notifications.Duration(); got != 5*time.Second {
			t.Errorf("expected notification duration 5s, got %v", got)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("embedded config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig overlays defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[proxy]
base_url = "http://localhost:9090"

[storage]
driver = "sqlite"

[playback]
auto_advance_on_error = true
volume = 0.5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Proxy.BaseURL != "http://localhost:9090" {
			t.Errorf("expected proxy URL http://localhost:9090, got %s", config.Proxy.BaseURL)
		}
		if config.Storage.Driver != "sqlite" {
			t.Errorf("expected sqlite driver, got %s", config.Storage.Driver)
		}
		if !config.Playback.AutoAdvanceOnError {
			t.Error("expected auto advance to be enabled")
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected default port to survive, got %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tt := []struct {
			name string
			body string
		}{
			{name: "unknown driver", body: "[storage]\ndriver = \"redis\"\n"},
			{name: "volume out of range", body: "[playback]\nvolume = 1.5\n"},
			{name: "negative delay", body: "[playback]\nrecovery_delay_ms = -1\n"},
			{name: "malformed toml", body: "[storage\n"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tc.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

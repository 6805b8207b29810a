package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Proxy.BaseURL != "http://localhost:8666" {
			t.Errorf("expected proxy base URL http://localhost:8666, got %s", config.Proxy.BaseURL)
		}

		if config.Downloads.Dir != "downloads" {
			t.Errorf("expected downloads dir downloads, got %s", config.Downloads.Dir)
		}

		if config.Downloads.RetainCompletedSecs != 5 {
			t.Errorf("expected retain_completed_seconds 5, got %d", config.Downloads.RetainCompletedSecs)
		}

		if config.Downloads.RetainCancelledSecs != 2 {
			t.Errorf("expected retain_cancelled_seconds 2, got %d", config.Downloads.RetainCancelledSecs)
		}

		if config.Database.Path != "./familliar.db" {
			t.Errorf("expected database path ./familliar.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8989 {
			t.Errorf("expected server port 8989, got %d", config.Server.Port)
		}
	})

	t.Run("ServerAddr", func(t *testing.T) {
		cfg := ServerConfig{Host: "127.0.0.1", Port: 8989}
		if got := cfg.Addr(); got != "127.0.0.1:8989" {
			t.Errorf("Addr() = %s, want 127.0.0.1:8989", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "familliar.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "familliar.toml")

		testConfig := `[proxy]
base_url = "http://127.0.0.1:9000"
client_id = "test-client"
redirect_uri = "http://localhost:9001/callback"
token = "tok123"

[downloads]
dir = "/music/offline"
rate_limit = 2.5
retries = 5
tag = false
retain_completed_seconds = 10
retain_cancelled_seconds = 3

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Proxy.Token != "tok123" {
			t.Errorf("expected proxy token tok123, got %s", config.Proxy.Token)
		}

		if config.Downloads.Dir != "/music/offline" {
			t.Errorf("expected downloads dir /music/offline, got %s", config.Downloads.Dir)
		}

		if config.Downloads.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %f", config.Downloads.RateLimit)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "broken.toml")

		if err := os.WriteFile(configPath, []byte("[proxy\nbase_url = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for malformed config")
		}
	})

	t.Run("ResolveConfigPath", func(t *testing.T) {
		t.Run("prefers the environment override", func(t *testing.T) {
			override := filepath.Join(t.TempDir(), "custom.toml")
			t.Setenv("FAMILLIAR_CONFIG", override)

			path, ok := ResolveConfigPath()
			if !ok {
				t.Fatal("expected override path to resolve")
			}
			if path != override {
				t.Errorf("expected %s, got %s", override, path)
			}
		})

		t.Run("finds the working directory config", func(t *testing.T) {
			t.Setenv("FAMILLIAR_CONFIG", "")
			t.Chdir(t.TempDir())

			if err := os.WriteFile("familliar.toml", []byte("[proxy]\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			path, ok := ResolveConfigPath()
			if !ok {
				t.Fatal("expected working directory config to resolve")
			}
			if path != "familliar.toml" {
				t.Errorf("expected familliar.toml, got %s", path)
			}
		})

		t.Run("reports no config when none exists", func(t *testing.T) {
			t.Setenv("FAMILLIAR_CONFIG", "")
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Setenv("HOME", t.TempDir())
			t.Chdir(t.TempDir())

			if path, ok := ResolveConfigPath(); ok {
				t.Errorf("expected no config, resolved %s", path)
			}
		})
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "familliar.toml")

		config := DefaultConfig()
		config.Proxy.Token = "fresh-token"

		if err := SaveConfig(config, configPath); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.Proxy.Token != "fresh-token" {
			t.Errorf("expected saved token fresh-token, got %s", loaded.Proxy.Token)
		}

		if loaded.Server.Port != config.Server.Port {
			t.Errorf("expected server port %d, got %d", config.Server.Port, loaded.Server.Port)
		}
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig should not fail without a config file: %v", err)
	}

	if cfg.Game.MinPlayers != 3 {
		t.Errorf("Expected min players 3, got %d", cfg.Game.MinPlayers)
	}
	if cfg.Game.MaxPlayers != 8 {
		t.Errorf("Expected max players 8, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.HeartbeatInterval != 30*time.Second {
		t.Errorf("Expected heartbeat 30s, got %v", cfg.Game.HeartbeatInterval)
	}
	if !cfg.Game.AllowSpyDiscussion || !cfg.Game.SpyHints || cfg.Game.ShowSpyCount {
		t.Errorf("Unexpected boolean defaults: %+v", cfg.Game)
	}
	if cfg.Database.Enabled {
		t.Error("Database should be disabled by default")
	}
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  http_address: ":7000"
game:
  max_players: 12
  heartbeat_interval: 5s
database:
  enabled: true
  driver: sql
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAME_MIN_PLAYERS", "4")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.HTTPAddress != ":7000" {
		t.Errorf("Expected http address from file, got %q", cfg.Server.HTTPAddress)
	}
	if cfg.Game.MaxPlayers != 12 {
		t.Errorf("Expected max players 12, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.MinPlayers != 4 {
		t.Errorf("Expected env override min players 4, got %d", cfg.Game.MinPlayers)
	}
	if cfg.Game.HeartbeatInterval != 5*time.Second {
		t.Errorf("Expected heartbeat 5s, got %v", cfg.Game.HeartbeatInterval)
	}
	if !cfg.Database.Enabled || cfg.Database.Driver != "sql" {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
}

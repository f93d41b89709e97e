package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"address":"127.0.0.1:9001","max_players":16}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != "127.0.0.1:9001" {
		t.Errorf("Address = %q, want overlay value", cfg.Address)
	}
	if cfg.MaxPlayers != 16 {
		t.Errorf("MaxPlayers = %d, want overlay value 16", cfg.MaxPlayers)
	}
	// Fields absent from the overlay keep their defaults.
	if cfg.RoomDirectory != "rooms" {
		t.Errorf("RoomDirectory = %q, want untouched default", cfg.RoomDirectory)
	}
	if cfg.TickIntervalMillis != 10 {
		t.Errorf("TickIntervalMillis = %d, want untouched default", cfg.TickIntervalMillis)
	}
}

func TestDurationHelpersZeroMeansDisabled(t *testing.T) {
	cfg := defaults()
	cfg.ConnectionTimeoutSeconds = 0
	cfg.IdleTimeoutSeconds = 0
	if cfg.ConnectionTimeout() != 0 {
		t.Errorf("ConnectionTimeout() = %v, want 0", cfg.ConnectionTimeout())
	}
	if cfg.IdleTimeout() != 0 {
		t.Errorf("IdleTimeout() = %v, want 0", cfg.IdleTimeout())
	}

	cfg.ConnectionTimeoutSeconds = 30
	if cfg.ConnectionTimeout() != 30*time.Second {
		t.Errorf("ConnectionTimeout() = %v, want 30s", cfg.ConnectionTimeout())
	}
}

func TestVerificationParsing(t *testing.T) {
	cfg := defaults()
	cfg.RoomVerificationBounds = "All"
	cfg.RoomVerificationMode = "Tiles"

	if _, err := cfg.VerificationBounds(); err != nil {
		t.Errorf("VerificationBounds: %v", err)
	}
	if _, err := cfg.VerificationMode(); err != nil {
		t.Errorf("VerificationMode: %v", err)
	}

	cfg.RoomVerificationBounds = "Bogus"
	if _, err := cfg.VerificationBounds(); err == nil {
		t.Error("VerificationBounds should reject an unknown value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

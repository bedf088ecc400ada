package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcabisamra/SocialAGI/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Server.Addr != ":3001" {
		t.Errorf("got addr %q, want :3001", cfg.Server.Addr)
	}
	if cfg.Soul.Blueprint != "Samantha" {
		t.Errorf("got blueprint %q, want Samantha", cfg.Soul.Blueprint)
	}
	if cfg.Soul.StageDelay() != 5*time.Millisecond {
		t.Errorf("got stage delay %v, want 5ms", cfg.Soul.StageDelay())
	}
}

func TestMerge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Merge(&config.Config{
		Server: config.ServerConfig{Addr: ":8080"},
		Soul:   config.SoulConfig{Blueprint: "Custom"},
	})

	if cfg.Server.Addr != ":8080" {
		t.Errorf("got addr %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Soul.Blueprint != "Custom" {
		t.Errorf("got blueprint %q, want Custom", cfg.Soul.Blueprint)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.StaticDir != "web" {
		t.Errorf("got static dir %q, want web", cfg.Server.StaticDir)
	}
}

func TestMerge_ZeroValuesIgnored(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Merge(&config.Config{})

	if cfg.Server.Addr != ":3001" {
		t.Errorf("got addr %q, want :3001", cfg.Server.Addr)
	}
	if cfg.Soul.StageDelayMS != 5 {
		t.Errorf("got stage delay %d, want 5", cfg.Soul.StageDelayMS)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": {"addr": ":9999"},
		"gateway": {"model": "gpt-4o"},
		"soul": {"stage_delay_ms": 20}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9999" {
		t.Errorf("got addr %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Gateway.Model != "gpt-4o" {
		t.Errorf("got model %q, want gpt-4o", cfg.Gateway.Model)
	}
	if cfg.Soul.StageDelay() != 20*time.Millisecond {
		t.Errorf("got stage delay %v, want 20ms", cfg.Soul.StageDelay())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"addr": ":9999"}}`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("SOUL_ADDR", ":7777")
	t.Setenv("OPENAI_API_KEY", "env-secret")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":7777" {
		t.Errorf("got addr %q, want :7777", cfg.Server.Addr)
	}
	if cfg.Gateway.APIKey != "env-secret" {
		t.Errorf("got api key %q, want env-secret", cfg.Gateway.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":3001" {
		t.Errorf("got addr %q, want :3001", cfg.Server.Addr)
	}
}

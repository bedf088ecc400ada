// Package config holds initialization parameters for the relay server and its
// external collaborators. Values are resolved in three layers: built-in
// defaults, an optional JSON config file merged on top, and environment
// variables last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultAddr         = ":3001"
	defaultStaticDir    = "web"
	defaultBlueprint    = "Samantha"
	defaultStageDelayMS = 5
)

// Config is the root configuration for the soul relay process.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Gateway GatewayConfig `json:"gateway"`
	TTS     TTSConfig     `json:"tts"`
	Soul    SoulConfig    `json:"soul"`
}

// ServerConfig configures the HTTP and websocket surface.
type ServerConfig struct {
	Addr           string   `json:"addr" env:"SOUL_ADDR"`
	StaticDir      string   `json:"static_dir" env:"SOUL_STATIC_DIR"`
	AllowedOrigins []string `json:"allowed_origins" env:"SOUL_ALLOWED_ORIGINS"`
}

// GatewayConfig configures the reasoning gateway. The API key is environment
// only: it never round-trips through config files.
type GatewayConfig struct {
	APIKey  string `json:"-" env:"OPENAI_API_KEY"`
	Model   string `json:"model" env:"OPENAI_MODEL"`
	BaseURL string `json:"base_url" env:"OPENAI_BASE_URL"`
}

// TTSConfig configures the text-to-speech collaborator.
type TTSConfig struct {
	APIKey  string `json:"-" env:"ELEVENLABS_API_KEY"`
	VoiceID string `json:"voice_id" env:"ELEVENLABS_VOICE_ID"`
	ModelID string `json:"model_id" env:"ELEVENLABS_MODEL_ID"`
	BaseURL string `json:"base_url" env:"ELEVENLABS_BASE_URL"`
}

// SoulConfig configures session coordination.
type SoulConfig struct {
	Blueprint    string `json:"blueprint" env:"SOUL_BLUEPRINT"`
	StageDelayMS int    `json:"stage_delay_ms" env:"SOUL_STAGE_DELAY_MS"`
}

// StageDelay returns the inter-stage presentation pause as a duration.
func (c *SoulConfig) StageDelay() time.Duration {
	return time.Duration(c.StageDelayMS) * time.Millisecond
}

// DefaultConfig returns a Config with sensible defaults for all sections.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           defaultAddr,
			StaticDir:      defaultStaticDir,
			AllowedOrigins: []string{"*"},
		},
		Soul: SoulConfig{
			Blueprint:    defaultBlueprint,
			StageDelayMS: defaultStageDelayMS,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Server.Addr != "" {
		c.Server.Addr = source.Server.Addr
	}
	if source.Server.StaticDir != "" {
		c.Server.StaticDir = source.Server.StaticDir
	}
	if len(source.Server.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = source.Server.AllowedOrigins
	}

	if source.Gateway.APIKey != "" {
		c.Gateway.APIKey = source.Gateway.APIKey
	}
	if source.Gateway.Model != "" {
		c.Gateway.Model = source.Gateway.Model
	}
	if source.Gateway.BaseURL != "" {
		c.Gateway.BaseURL = source.Gateway.BaseURL
	}

	if source.TTS.APIKey != "" {
		c.TTS.APIKey = source.TTS.APIKey
	}
	if source.TTS.VoiceID != "" {
		c.TTS.VoiceID = source.TTS.VoiceID
	}
	if source.TTS.ModelID != "" {
		c.TTS.ModelID = source.TTS.ModelID
	}
	if source.TTS.BaseURL != "" {
		c.TTS.BaseURL = source.TTS.BaseURL
	}

	if source.Soul.Blueprint != "" {
		c.Soul.Blueprint = source.Soul.Blueprint
	}
	if source.Soul.StageDelayMS > 0 {
		c.Soul.StageDelayMS = source.Soul.StageDelayMS
	}
}

// Load reads a JSON config file, merges it over defaults, then applies
// environment overrides. An empty filename skips the file layer.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var loaded Config
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}

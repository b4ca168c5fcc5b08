package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the on-disk configuration for folio-engine.
//
// Secrets (provider API keys, storage service keys) never live here; they are
// managed via a separate local secrets file. Always keep both chmod 0600.
type Config struct {
	// AI configures the language-model providers used by the pipeline.
	AI AIConfig `json:"ai"`

	// Media configures storage-backed media resolution.
	Media MediaConfig `json:"media"`

	// KBDatabasePath is the sqlite database holding the primary knowledge base.
	KBDatabasePath string `json:"kb_database_path,omitempty"`

	// KBLegacyDir is the filesystem knowledge-base directory used as the
	// degraded fallback source when the primary store is unavailable or partial.
	KBLegacyDir string `json:"kb_legacy_dir,omitempty"`

	// LogFormat is "json" or "text".
	LogFormat string `json:"log_format,omitempty"`
	// LogLevel is "debug|info|warn|error".
	LogLevel string `json:"log_level,omitempty"`
}

// MediaConfig describes the trusted storage provider used for media delivery.
//
// All resolved media and placeholder URLs must originate from this provider
// (or localhost during development, or the single literal default placeholder).
type MediaConfig struct {
	// StorageBaseURL is the storage provider base URL
	// (e.g. "https://abc123.supabase.co").
	StorageBaseURL string `json:"storage_base_url,omitempty"`

	// PlaceholderImageURL overrides the built-in placeholder image. It is
	// subject to the same origin allow-list as resolved media.
	PlaceholderImageURL string `json:"placeholder_image_url,omitempty"`

	// SignedURLTTLSeconds is the lifetime of generated signed URLs.
	// Defaults to 7 days.
	SignedURLTTLSeconds int64 `json:"signed_url_ttl_seconds,omitempty"`
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("invalid ai config: %w", err)
	}
	if c.Media.SignedURLTTLSeconds < 0 {
		return fmt.Errorf("invalid signed_url_ttl_seconds %d", c.Media.SignedURLTTLSeconds)
	}
	switch strings.TrimSpace(strings.ToLower(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	switch strings.TrimSpace(strings.ToLower(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// DefaultConfigPath returns the default config path:
//
//	~/.folio-engine/config.json
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "folio-engine.config.json"
	}
	return filepath.Join(home, ".folio-engine", "config.json")
}

// DefaultSecretsPath returns the default secrets file path next to the config.
func DefaultSecretsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "folio-engine.secrets.json"
	}
	return filepath.Join(home, ".folio-engine", "secrets.json")
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	// Write atomically.
	tmp := path + ".tmp"
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

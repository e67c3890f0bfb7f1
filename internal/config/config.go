package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	ChatModeServer = "server"
	ChatModeLocal  = "local"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultRevealInterval = 25 * time.Millisecond
)

// Config holds application configuration
type Config struct {
	BaseURL string `toml:"base_url"`
	DataDir string `toml:"data_dir"` // Storage database, logs and traces live here
	Debug   bool   `toml:"debug"`

	Chat ChatConfig `toml:"chat"`
	HTTP HTTPConfig `toml:"http"`
}

// ChatConfig controls the chat view.
type ChatConfig struct {
	// Mode selects the session source of truth: "server" keeps sessions on
	// /conversation/session/{id} with the local cache as read-through copy,
	// "local" keeps them only in the local cache.
	Mode           string   `toml:"mode"`
	RevealInterval Duration `toml:"reveal_interval"`
}

// HTTPConfig controls the API client. A zero timeout keeps the client default.
type HTTPConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Duration decodes TOML strings such as "25ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".lexai"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".lexai")
	}
	return &Config{
		BaseURL: DefaultBaseURL,
		DataDir: dataDir,
		Chat: ChatConfig{
			Mode:           ChatModeServer,
			RevealInterval: Duration{DefaultRevealInterval},
		},
	}
}

// DefaultPath returns ~/.lexai/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".lexai", "config.toml"), nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies LEXAI_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LEXAI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("LEXAI_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("LEXAI_CHAT_MODE"); v != "" {
		c.Chat.Mode = strings.ToLower(v)
	}
}

// Validate checks the configuration and fills zero values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	switch c.Chat.Mode {
	case ChatModeServer, ChatModeLocal:
	case "":
		c.Chat.Mode = ChatModeServer
	default:
		return fmt.Errorf("invalid chat.mode %q (server|local)", c.Chat.Mode)
	}

	if c.Chat.RevealInterval.Duration < 0 {
		return fmt.Errorf("chat.reveal_interval must not be negative")
	}
	if c.HTTP.Timeout.Duration < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	return nil
}

// StoragePath is the SQLite file backing durable client storage.
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "storage.db")
}

// LogDir is where logs, traces and metrics are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// InputHistoryPath holds the interactive chat's line-editing history.
func (c *Config) InputHistoryPath() string {
	return filepath.Join(c.DataDir, "chat_history")
}

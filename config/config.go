// Package config loads the gateway's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full gateway configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`

	Log      Log                 `toml:"log"`
	Catalog  Catalog             `toml:"catalog"`
	Accounts Accounts            `toml:"accounts"`
	Quota    QuotaStore          `toml:"quota"`
	Ledger   Ledger              `toml:"ledger"`
	Stream   Stream              `toml:"stream"`
	Provider map[string]Provider `toml:"providers"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Catalog locates the model catalog. An empty path uses the compiled-in
// default catalog.
type Catalog struct {
	Path string `toml:"path"`
}

// Accounts locates the caller accounts file.
type Accounts struct {
	Path string `toml:"path"`

	// Watch enables hot reload when the file changes on disk.
	Watch bool `toml:"watch"`
}

// QuotaStore selects where quota counters live.
type QuotaStore struct {
	// Store is memory or redis.
	Store string `toml:"store"`
	Redis Redis  `toml:"redis"`
}

// Redis holds connection details for the redis quota store.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Ledger locates the usage journal database. An empty path disables
// journaling.
type Ledger struct {
	Path string `toml:"path"`
}

// Stream tunes the streaming orchestrator.
type Stream struct {
	// SegmentTimeout bounds each provider invocation. 0 uses the
	// orchestrator default.
	SegmentTimeout Duration `toml:"segment_timeout"`
}

// Provider configures one upstream adapter.
type Provider struct {
	// Type names the registered adapter factory.
	Type    string            `toml:"type"`
	BaseURL string            `toml:"base_url"`
	APIKey  string            `toml:"api_key"`
	Timeout Duration          `toml:"timeout"`
	Options map[string]string `toml:"options"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Log: Log{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Accounts: Accounts{
			Path:  "accounts.yaml",
			Watch: true,
		},
		Quota: QuotaStore{
			Store: "memory",
			Redis: Redis{Addr: "localhost:6379"},
		},
		Provider: map[string]Provider{
			"sim": {Type: "sim"},
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	switch c.Quota.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown quota store %q (want memory or redis)", c.Quota.Store)
	}
	if c.Quota.Store == "redis" && c.Quota.Redis.Addr == "" {
		return fmt.Errorf("quota store redis requires an address")
	}
	if c.Accounts.Path == "" {
		return fmt.Errorf("accounts path is required")
	}
	for name, p := range c.Provider {
		if p.Type == "" {
			return fmt.Errorf("provider %s: type is required", name)
		}
	}
	return nil
}

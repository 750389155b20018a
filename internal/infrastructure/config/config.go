package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"ttstream/internal/domain/model"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level"`
	} `toml:"app"`

	API struct {
		BaseURL string `toml:"base_url"` // empty: derived from sandbox
		Sandbox bool   `toml:"sandbox"`
	} `toml:"api"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Streamer struct {
		Events         []string `toml:"events"`
		AuthTimeoutSec int      `toml:"auth_timeout_sec"`
	} `toml:"streamer"`

	Cache struct {
		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`

		Redis struct {
			Enabled    bool   `toml:"enabled"`
			Addr       string `toml:"addr"`
			Password   string `toml:"password"`
			DB         int    `toml:"db"`
			Prefix     string `toml:"prefix"`
			TTLSeconds int    `toml:"ttl_seconds"`
		} `toml:"redis"`
	} `toml:"cache"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"metrics"`

	// from the environment, never from the file
	Credentials Credentials `toml:"-"`
}

// Credentials are read from TT_LOGIN, TT_PASSWORD and TT_REMEMBER_TOKEN.
type Credentials struct {
	Login         string
	Password      string
	RememberToken string
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.Credentials = credentialsFromEnv()
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func credentialsFromEnv() Credentials {
	return Credentials{
		Login:         os.Getenv("TT_LOGIN"),
		Password:      os.Getenv("TT_PASSWORD"),
		RememberToken: os.Getenv("TT_REMEMBER_TOKEN"),
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if len(cfg.Streamer.Events) == 0 {
		cfg.Streamer.Events = []string{string(model.EventQuote), string(model.EventTrade)}
	}
	if cfg.Streamer.AuthTimeoutSec <= 0 {
		cfg.Streamer.AuthTimeoutSec = 10
	}
	if cfg.Cache.SQLite.Path == "" {
		cfg.Cache.SQLite.Path = "data/ttstream.db"
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = "ttstream"
	}
	if cfg.Cache.Redis.TTLSeconds <= 0 {
		cfg.Cache.Redis.TTLSeconds = 86400
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = NormalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	events, err := ParseEvents(cfg.Streamer.Events)
	if err != nil {
		return err
	}
	cfg.Streamer.Events = cfg.Streamer.Events[:0]
	for _, e := range events {
		cfg.Streamer.Events = append(cfg.Streamer.Events, string(e))
	}

	if cfg.Cache.Postgres.Enabled && strings.TrimSpace(cfg.Cache.Postgres.DSN) == "" {
		return errors.New("cache.postgres.dsn empty but enabled")
	}
	if cfg.Cache.Redis.Enabled && strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
		return errors.New("cache.redis.addr empty but enabled")
	}
	if cfg.Credentials.Login == "" {
		return errors.New("TT_LOGIN is not set")
	}
	if cfg.Credentials.Password != "" && cfg.Credentials.RememberToken != "" {
		return errors.New("set TT_PASSWORD or TT_REMEMBER_TOKEN, not both")
	}
	return nil
}

// BaseURL is api.base_url, or the production/sandbox host when unset.
func (c *Config) BaseURL() string {
	if u := strings.TrimSpace(c.API.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if c.API.Sandbox {
		return "https://api.cert.tastyworks.com"
	}
	return "https://api.tastyworks.com"
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols.
func NormalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ParseEvents maps event names to event types, case-insensitively,
// dropping duplicates.
func ParseEvents(in []string) ([]model.EventType, error) {
	var out []model.EventType
	seen := map[model.EventType]bool{}
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := parseEventFold(name)
		if !ok {
			return nil, fmt.Errorf("streamer.events: unknown event type %q", name)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("streamer.events is empty")
	}
	return out, nil
}

func parseEventFold(name string) (model.EventType, bool) {
	for _, t := range model.EventTypes {
		if strings.EqualFold(string(t), name) {
			return t, true
		}
	}
	return "", false
}

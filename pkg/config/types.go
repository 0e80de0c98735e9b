package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent marquee configuration stored as config.toml
// in the .marquee/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Scraper   ScraperConfig   `toml:"scraper"`
	Session   SessionConfig   `toml:"session"`
	Cinemas   CinemasConfig   `toml:"cinemas"`
	Recommend RecommendConfig `toml:"recommend"`
}

// StorageConfig holds catalog store settings.
type StorageConfig struct {
	Driver     string `toml:"driver,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// ScraperConfig holds showtime scraper settings. Command is the scraper
// executable plus its arguments as one shell-style string.
type ScraperConfig struct {
	Command        string `toml:"command,omitempty"`
	TimeoutMinutes uint   `toml:"timeout_minutes,omitempty"`
	BatchSize      uint   `toml:"batch_size,omitempty"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Provider      string `toml:"provider,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	TTLHours      uint   `toml:"ttl_hours,omitempty"`
}

// CinemasConfig holds the cinema directory settings.
type CinemasConfig struct {
	Path string `toml:"path,omitempty"`
}

// RecommendConfig holds retrieval settings.
type RecommendConfig struct {
	TopK uint `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) uint, set func(c *Config, v uint)) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid unsigned integer value %q: %w", v, err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"scraper.command": {
		get: func(c *Config) string { return c.Scraper.Command },
		set: func(c *Config, v string) error { c.Scraper.Command = v; return nil },
	},
	"scraper.timeout_minutes": uintKey(
		func(c *Config) uint { return c.Scraper.TimeoutMinutes },
		func(c *Config, v uint) { c.Scraper.TimeoutMinutes = v },
	),
	"scraper.batch_size": uintKey(
		func(c *Config) uint { return c.Scraper.BatchSize },
		func(c *Config, v uint) { c.Scraper.BatchSize = v },
	),
	"session.provider": {
		get: func(c *Config) string { return c.Session.Provider },
		set: func(c *Config, v string) error { c.Session.Provider = v; return nil },
	},
	"session.redis_addr": {
		get: func(c *Config) string { return c.Session.RedisAddr },
		set: func(c *Config, v string) error { c.Session.RedisAddr = v; return nil },
	},
	"session.redis_password": {
		get: func(c *Config) string { return c.Session.RedisPassword },
		set: func(c *Config, v string) error { c.Session.RedisPassword = v; return nil },
	},
	"session.redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.Session.RedisDB) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for session.redis_db: %w", err)
			}
			c.Session.RedisDB = n
			return nil
		},
	},
	"session.ttl_hours": uintKey(
		func(c *Config) uint { return c.Session.TTLHours },
		func(c *Config, v uint) { c.Session.TTLHours = v },
	),
	"cinemas.path": {
		get: func(c *Config) string { return c.Cinemas.Path },
		set: func(c *Config, v string) error { c.Cinemas.Path = v; return nil },
	},
	"recommend.top_k": uintKey(
		func(c *Config) uint { return c.Recommend.TopK },
		func(c *Config, v uint) { c.Recommend.TopK = v },
	),
}

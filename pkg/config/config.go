// Package config loads the domsplit configuration file.
//
// The file is TOML with one table per concern:
//
//	[split]
//	threshold = 10240       # bytes; packages smaller than this are inlined
//	no_merge = false
//	package_key = "parents" # or "hash"
//
//	[cache]
//	backend = "file"        # file, redis or none
//	dir = "~/.cache/domsplit"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "168h"
//
//	[store]
//	backend = "memory"      # memory or mongo
//	mongo_uri = "mongodb://localhost:27017"
//	database = "domsplit"
//
//	[server]
//	addr = ":8080"
//	max_body_bytes = 33554432
//
// A missing file yields [Default]. Values present in the file override the
// defaults field by field.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	derrors "github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/pipeline"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// DefaultFileName is looked up in the user config directory.
const DefaultFileName = "domsplit.toml"

// Config is the parsed configuration file.
type Config struct {
	Split  SplitConfig  `toml:"split"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// SplitConfig holds splitter defaults.
type SplitConfig struct {
	Threshold  int64  `toml:"threshold"`
	NoMerge    bool   `toml:"no_merge"`
	PackageKey string `toml:"package_key"`
}

// CacheConfig selects and configures the plan cache.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// StoreConfig selects and configures the plan store.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Split: SplitConfig{
			Threshold:  pipeline.DefaultThreshold,
			PackageKey: pipeline.DefaultPackageKey,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Store: StoreConfig{
			Backend:  StoreMemory,
			Database: "domsplit",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 32 << 20,
		},
	}
}

// DefaultPath returns the configuration file path in the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "domsplit", DefaultFileName), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, derrors.Wrap(derrors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	if err := Decode(string(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping fields the document leaves unset.
// Unknown keys are rejected.
func Decode(data string, cfg *Config) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return derrors.New(derrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks backend names and the settings each backend requires.
func (c *Config) Validate() error {
	if c.Split.Threshold < 0 {
		return derrors.New(derrors.ErrCodeInvalidConfig, "split.threshold must not be negative")
	}
	if c.Split.PackageKey != "" {
		if err := pipeline.ValidatePackageKey(c.Split.PackageKey); err != nil {
			return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "split.package_key")
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if err := derrors.ValidateURL(c.Cache.RedisURL, "redis", "rediss"); err != nil {
			return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "cache.redis_url")
		}
	default:
		return derrors.New(derrors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return derrors.New(derrors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if err := derrors.ValidateURL(c.Store.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return derrors.Wrap(derrors.ErrCodeInvalidConfig, err, "store.mongo_uri")
		}
	default:
		return derrors.New(derrors.ErrCodeInvalidConfig, "store.backend must be memory or mongo, got %q", c.Store.Backend)
	}

	if c.Server.MaxBodyBytes < 0 {
		return derrors.New(derrors.ErrCodeInvalidConfig, "server.max_body_bytes must not be negative")
	}
	return nil
}

// CacheDir returns the configured cache directory with a leading "~"
// expanded, or the per-user default when unset.
func (c *Config) CacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "domsplit"), nil
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// PipelineOptions returns pipeline options carrying the split settings.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Threshold:  c.Split.Threshold,
		NoMerge:    c.Split.NoMerge,
		PackageKey: c.Split.PackageKey,
	}
}

// Package cli implements the domsplit command-line interface.
//
// # Commands
//
//   - split: Compute a bundle plan from an asset-graph document
//   - render: Render a saved plan as DOT or SVG
//   - browse: Explore a plan's bundles interactively
//   - serve: Run the HTTP API
//   - plans: List, show and delete plans in the plan history
//   - cache: Manage the plan and render cache
//
// # Configuration
//
// Settings are read from a TOML file (see package config), by default
// domsplit.toml in the user config directory. Flags override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging via
// charmbracelet/log.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/buildinfo"
	"github.com/matzehuels/domsplit/pkg/cache"
	"github.com/matzehuels/domsplit/pkg/config"
	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/pipeline"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "domsplit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default configuration file location.
	ConfigPath string

	config *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "domsplit partitions an asset graph into bundles",
		Long:         `domsplit computes code-splitting plans for web bundlers. It builds the dominator tree of an asset graph, groups shared code into packages and inlines packages too small to stand alone.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "configuration file (default: <user config dir>/domsplit/domsplit.toml)")

	root.AddCommand(c.splitCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.plansCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file once per CLI.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	path := c.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			cfg := config.Default()
			c.config = &cfg
			return c.config, nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	c.config = &cfg
	return c.config, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, store, c.Logger), nil
}

// newCache opens the configured cache. A file cache that cannot be created
// degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the plan history. The memory backend keeps nothing across
// invocations, so the CLI only records plans in MongoDB.
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Store.Backend != config.StoreMongo {
		return nil, nil
	}
	return storage.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
}

// requireStore opens the plan history or explains how to enable it.
func (c *CLI) requireStore(ctx context.Context) (storage.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "plan history requires store.backend = %q", config.StoreMongo)
	}
	return store, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

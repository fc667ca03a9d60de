// Package cli implements the refboard command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/buildinfo"
	"github.com/matzehuels/refboard/pkg/cache"
	"github.com/matzehuels/refboard/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "refboard"
)

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

	configPath string
	backend    string
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
		Use:          "refboard",
		Short:        "Refboard arranges reference boards in columns and on canvases",
		Long:         `Refboard lays out reference boards as masonry columns with a stable reading order, reorders blocks by drag and drop, and keeps a freeform canvas per section, with undo and background sync to a file, SQLite or MongoDB.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/refboard/config.toml)")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "persistence backend: file, sqlite, mongo, memory (overrides config)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.columnsCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.fitCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Workspace Factory
// =============================================================================

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.backend != "" {
		cfg.Persist.Backend = c.backend
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	c.Logger.Debug("config loaded", "backend", cfg.Persist.Backend, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// openWorkspace loads the config and opens the board at path.
func (c *CLI) openWorkspace(ctx context.Context, path string, opts ...workspace.Option) (*workspace.Workspace, config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, err
	}

	spinner := newSpinnerWithContext(ctx, "Opening "+filepath.Base(path)+"...")
	spinner.Start()
	opts = append([]workspace.Option{workspace.WithLogger(c.Logger)}, opts...)
	w, err := workspace.Open(ctx, cfg, path, opts...)
	if err != nil {
		spinner.StopWithError("Could not open " + path)
		return nil, cfg, err
	}
	spinner.Stop()
	return w, cfg, nil
}

func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.Redis)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newKeyer returns the cache keyer for cfg. Keys in a shared Redis are
// prefixed with the app name.
func newKeyer(cfg config.Config) cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Backend == config.CacheRedis {
		return cache.NewScopedKeyer(keyer, appName+":")
	}
	return keyer
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/refboard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// siblingPath returns input with its extension replaced by suffix.
func siblingPath(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

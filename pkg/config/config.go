// Package config loads refboard settings from a TOML file.
//
// The file is optional. Missing keys keep the values from [Default], so a
// config file only needs the settings it changes:
//
//	[layout]
//	container_width = 1920
//	spacing = 12
//
//	[persist]
//	backend = "sqlite"
//	path = "~/.local/share/refboard/boards.db"
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/refboard/pkg/cache"
	"github.com/matzehuels/refboard/pkg/canvas"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/layout"
	"github.com/matzehuels/refboard/pkg/persist"
)

const appName = "refboard"

// Persistence backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds every setting.
type Config struct {
	Layout  layout.Params `toml:"layout"`
	Canvas  canvas.Bounds `toml:"canvas"`
	History History       `toml:"history"`
	Persist Persist       `toml:"persist"`
	Cache   Cache         `toml:"cache"`
	Server  Server        `toml:"server"`
}

// History configures the undo stack.
type History struct {
	// Limit caps the undo depth; 0 is unbounded.
	Limit int `toml:"limit"`
}

// Persist configures where board changes are synced.
type Persist struct {
	Backend       string        `toml:"backend"`
	Path          string        `toml:"path"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
	Delay         time.Duration `toml:"delay"`
	Retry         string        `toml:"retry"`
}

// Cache configures the layout cache.
type Cache struct {
	Backend string            `toml:"backend"`
	TTL     time.Duration     `toml:"ttl"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// Server configures refboard serve.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout:  layout.DefaultParams(),
		Canvas:  canvas.DefaultBounds(),
		History: History{Limit: 200},
		Persist: Persist{
			Backend:       BackendFile,
			MongoDatabase: appName,
			Delay:         persist.DefaultDelay,
			Retry:         persist.DefaultRetry,
		},
		Cache: Cache{
			Backend: CacheFile,
			TTL:     7 * 24 * time.Hour,
			Redis:   cache.RedisConfig{Addr: "localhost:6379", DialTimeout: 5 * time.Second},
		},
		Server: Server{
			Addr:            "localhost:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/refboard/config.toml, falling back to
// ~/.config/refboard/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path over the defaults. An empty path
// means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Persist.Path = expandHome(cfg.Persist.Path)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Layout.ContainerWidth <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "layout.container_width must be positive")
	case c.Layout.Spacing < 0 || c.Layout.GalleryPadding < 0 || c.Layout.CaptionHeight < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "layout sizes must not be negative")
	case !c.Layout.Valid():
		return errors.New(errors.ErrCodeInvalidConfig, "layout sizes must be finite and non-negative")
	case c.Canvas.MinScale <= 0 || c.Canvas.MaxScale < c.Canvas.MinScale:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas scale bounds must satisfy 0 < min_scale <= max_scale")
	case c.Canvas.MinZoom <= 0 || c.Canvas.MaxZoom < c.Canvas.MinZoom:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas zoom bounds must satisfy 0 < min_zoom <= max_zoom")
	case c.Canvas.ZoomStep <= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.zoom_step must be greater than 1")
	case c.History.Limit < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "history.limit must not be negative")
	}
	switch c.Persist.Backend {
	case BackendFile, BackendMemory:
	case BackendSQLite:
		if c.Persist.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "persist.path is required for the sqlite backend")
		}
	case BackendMongo:
		if c.Persist.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "persist.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown persist.backend %q", c.Persist.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/refboard/pkg/cache"
	"github.com/matzehuels/refboard/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", "refboard"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestSiblingPath(t *testing.T) {
	tests := []struct {
		input, suffix, want string
	}{
		{"board.json", ".layout.json", "board.layout.json"},
		{"dir/my.board.json", ".export.json", "dir/my.board.export.json"},
		{"board", ".layout.json", "board.layout.json"},
	}
	for _, tt := range tests {
		if got := siblingPath(tt.input, tt.suffix); got != tt.want {
			t.Errorf("siblingPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestNewKeyer(t *testing.T) {
	cfg := config.Default()
	opts := cache.LayoutKeyOpts{SectionID: "s1", Params: cfg.Layout}
	if key := newKeyer(cfg).LayoutKey("h", opts); strings.HasPrefix(key, appName+":") {
		t.Errorf("file cache key %q should not be scoped", key)
	}
	cfg.Cache.Backend = config.CacheRedis
	if key := newKeyer(cfg).LayoutKey("h", opts); !strings.HasPrefix(key, appName+":") {
		t.Errorf("redis cache key %q is not scoped", key)
	}
}

package cache

import (
	"context"
	"time"
)

// NullCache answers every lookup with a miss, so each layout and fit is
// computed from the board. The CLI selects it for --no-cache, for
// cache.backend = "none", and when no user cache directory exists.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a [NullCache].
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data; a later Get for key still misses.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

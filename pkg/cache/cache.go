// Package cache stores computed layouts so repeated CLI runs and server
// requests on an unchanged board skip the layout pass.
//
// Three implementations share the [Cache] interface:
//
//   - [FileCache]: one file per entry under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// Keys come from a [Keyer]. Every key includes a hash of the board content
// and of every input that changes the result, so entries never need to be
// invalidated explicitly; they simply stop being asked for.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/refboard/pkg/layout"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// LayoutKeyOpts are the inputs of a section layout besides the board.
type LayoutKeyOpts struct {
	SectionID string        `json:"section_id"`
	Params    layout.Params `json:"params"`
}

// FitKeyOpts are the inputs of a fit-to-content camera besides the board.
type FitKeyOpts struct {
	SectionID string  `json:"section_id"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`

	// Seeded is set when blocks without a position were first placed from
	// the column layout.
	Seeded bool `json:"seeded,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key of a section layout of the board whose
	// content hashes to boardHash.
	LayoutKey(boardHash string, opts LayoutKeyOpts) string

	// FitKey returns the key of a fit-to-content camera.
	FitKey(boardHash string, opts FitKeyOpts) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(boardHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", boardHash, opts)
}

// FitKey returns "fit:<hash>".
func (DefaultKeyer) FitKey(boardHash string, opts FitKeyOpts) string {
	return hashKey("fit", boardHash, opts)
}

// Package cache provides caching for the circuitlay pipeline.
//
// Pipeline stages are content addressed: the parse stage is keyed by the
// netlist bytes, the layout stage by the parsed circuit plus layout
// options, and render artifacts by the layout plus render options. Any
// stage whose inputs are unchanged is served from cache.
//
// Backends: FileCache for CLI usage, RedisCache for the API server, and
// NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache is the storage backend interface. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was found; a miss is not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per pipeline stage. Parsed circuits and layouts are pure
// functions of their inputs so they keep long TTLs; artifacts are large
// and cheap to regenerate from a cached layout.
const (
	CircuitTTL  = 30 * 24 * time.Hour
	LayoutTTL   = 30 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// CircuitKeyOpts are the parse inputs that affect the cached circuit.
type CircuitKeyOpts struct {
	NetlistHash string `json:"netlist_hash"`
}

// LayoutKeyOpts are the layout inputs that affect the cached result.
type LayoutKeyOpts struct {
	CanvasWidth     float64 `json:"canvas_width"`
	CanvasHeight    float64 `json:"canvas_height"`
	Clearance       float64 `json:"clearance"`
	Margin          float64 `json:"margin"`
	ChipMargin      float64 `json:"chip_margin"`
	MaxAttempts     int     `json:"max_attempts"`
	SpiralStep      float64 `json:"spiral_step"`
	SpiralSamples   int     `json:"spiral_samples"`
	MaxRadiusFactor float64 `json:"max_radius_factor"`
}

// ArtifactKeyOpts are the render inputs that affect a cached artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
	Labels bool    `json:"labels"`
	BBoxes bool    `json:"bboxes"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// CircuitKey keys a parsed circuit by its netlist content.
	CircuitKey(opts CircuitKeyOpts) string

	// LayoutKey keys a convergence result by circuit hash and options.
	LayoutKey(circuitHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by layout hash and options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates hierarchical content-hash keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// CircuitKey generates a key for circuit caching.
func (k *DefaultKeyer) CircuitKey(opts CircuitKeyOpts) string {
	return hashKey("circuit", opts)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(circuitHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", circuitHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

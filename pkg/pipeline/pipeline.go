// Package pipeline provides the core layout pipeline for circuitlay.
//
// This package implements the complete parse → layout → render pipeline
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Decode and validate a circuit netlist
//  2. Layout: Place components and converge to a collision-free layout
//  3. Render: Generate output in various formats (SVG, PNG, JSON)
//
// Each stage can be run independently or as part of the complete
// pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    NetlistPath: "blinker.json",
//	    Formats:     []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/layout"
	"github.com/schemalab/circuitlay/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultPNGMaxWidth caps PNG output width in pixels.
	DefaultPNGMaxWidth = 1600
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options. Exactly one of NetlistPath or Netlist must be set:
	// the CLI passes a path, the API passes raw bytes.
	NetlistPath string `json:"netlist_path,omitempty"`
	Netlist     []byte `json:"netlist,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`

	// Layout options
	CanvasWidth     float64 `json:"canvas_width,omitempty"`
	CanvasHeight    float64 `json:"canvas_height,omitempty"`
	Clearance       float64 `json:"clearance,omitempty"`
	Margin          float64 `json:"margin,omitempty"`
	ChipMargin      float64 `json:"chip_margin,omitempty"`
	MaxAttempts     int     `json:"max_attempts,omitempty"`
	SpiralStep      float64 `json:"spiral_step,omitempty"`
	SpiralSamples   int     `json:"spiral_samples,omitempty"`
	MaxRadiusFactor float64 `json:"max_radius_factor,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Labels      bool     `json:"labels,omitempty"`
	BBoxes      bool     `json:"bboxes,omitempty"`
	PNGMaxWidth int      `json:"png_max_width,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Circuit is the parsed netlist.
	Circuit *circuit.Circuit

	// CircuitHash is the content hash of the parsed circuit.
	CircuitHash string

	// Layout is the convergence result.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ComponentCount int
	NetCount       int
	Attempts       int
	ParseTime      time.Duration
	LayoutTime     time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed circuit came from cache
	LayoutHit bool // Whether the layout result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.NetlistPath == "" && len(o.Netlist) == 0 {
		return fmt.Errorf("netlist path or netlist data is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender applies render defaults and validates formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGMaxWidth == 0 {
		o.PNGMaxWidth = DefaultPNGMaxWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts the flat pipeline fields to layout options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		CanvasWidth:     o.CanvasWidth,
		CanvasHeight:    o.CanvasHeight,
		Clearance:       o.Clearance,
		Margin:          o.Margin,
		ChipMargin:      o.ChipMargin,
		MaxAttempts:     o.MaxAttempts,
		SpiralStep:      o.SpiralStep,
		SpiralSamples:   o.SpiralSamples,
		MaxRadiusFactor: o.MaxRadiusFactor,
	}
}

// RenderOptions converts the flat pipeline fields to render options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Scale:  o.Scale,
		Labels: o.Labels,
		BBoxes: o.BBoxes,
	}
}

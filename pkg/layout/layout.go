// Package layout places circuit components around a central chip and
// resolves footprint collisions.
//
// The pipeline is placement then convergence: Place derives an initial
// position for every component from its chip-pin wiring, and Converge
// repeatedly detects overlapping footprints and relocates one member of
// each colliding pair via an outward spiral search until the layout is
// collision free or the attempt budget runs out. The chip sits at the
// origin and is never moved.
package layout

import (
	"strings"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

// =============================================================================
// Model
// =============================================================================

// Item is one placed component: the component itself plus its mutable
// geometric state. The bounding box is recomputed on every position or
// rotation change and is never allowed to go stale.
type Item struct {
	Comp     circuit.Component `json:"component" bson:"component"`
	Pos      geom.Point        `json:"position" bson:"position"`
	Rotation float64           `json:"rotation" bson:"rotation"`
	BBox     geom.Rect         `json:"bbox" bson:"bbox"`

	// Target is the initial placement position, kept for reporting how
	// far convergence displaced the component.
	Target geom.Point `json:"target" bson:"target"`

	// Unconnected marks components with no resolvable chip connection
	// that were placed at the fallback position.
	Unconnected bool `json:"unconnected,omitempty" bson:"unconnected,omitempty"`

	// Resolved is false when the spiral resolver exhausted its search
	// radius for this component or it is part of an outstanding
	// collision after an unresolved run.
	Resolved bool `json:"resolved" bson:"resolved"`

	// Moves counts how many times convergence relocated the component.
	Moves int `json:"moves,omitempty" bson:"moves,omitempty"`
}

// SetPos moves the item and recomputes its bounding box.
func (it *Item) SetPos(p geom.Point) {
	it.Pos = p
	it.recomputeBBox()
}

// SetRotation rotates the item and recomputes its bounding box.
func (it *Item) SetRotation(deg float64) {
	it.Rotation = deg
	it.recomputeBBox()
}

func (it *Item) recomputeBBox() {
	w, h := it.Comp.Size()
	it.BBox = geom.Envelope(it.Pos, w, h, it.Rotation)
}

// Displacement returns the distance from the item's initial placement
// target to its current position.
func (it *Item) Displacement() float64 {
	return it.Target.Distance(it.Pos)
}

// Layout is the working arrangement: the fixed chip plus the ordered
// component items. Item order is component creation order and is the
// basis for every deterministic tie-break.
type Layout struct {
	Chip    circuit.Chip `json:"chip" bson:"chip"`
	ChipBox geom.Rect    `json:"chip_bbox" bson:"chip_bbox"`
	Items   []*Item      `json:"items" bson:"items"`

	CanvasWidth  float64 `json:"canvas_width" bson:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height" bson:"canvas_height"`
}

// Item returns the item for a component ID, or nil.
func (l *Layout) Item(id string) *Item {
	for _, it := range l.Items {
		if it.Comp.ID == id {
			return it
		}
	}
	return nil
}

// Unconnected lists the components that had no resolvable chip
// connection and were placed on the fallback column, in layout order.
func (l *Layout) Unconnected() []string {
	var ids []string
	for _, it := range l.Items {
		if it.Unconnected {
			ids = append(ids, it.Comp.ID)
		}
	}
	return ids
}

// UnconnectedErr returns an UNRESOLVABLE_NET error naming the
// unconnected components, or nil when every component is wired to a
// chip pin.
func (l *Layout) UnconnectedErr() error {
	ids := l.Unconnected()
	if len(ids) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeUnresolvableNet,
		"no chip connection resolvable for %s", strings.Join(ids, ", "))
}

// Bounds returns the smallest rectangle containing the chip and every
// component footprint.
func (l *Layout) Bounds() geom.Rect {
	b := l.ChipBox
	for _, it := range l.Items {
		b = b.Union(it.BBox)
	}
	return b
}

// =============================================================================
// Options
// =============================================================================

// Tuning defaults, in schematic units.
const (
	DefaultCanvasWidth  = 40.0
	DefaultCanvasHeight = 30.0

	// DefaultClearance is the radial gap between a chip pin and the
	// near edge of the component wired to it.
	DefaultClearance = 0.5

	// DefaultMargin is the minimum gap required between two component
	// footprints; DefaultChipMargin is the larger gap required next to
	// the chip so pin leads stay routable.
	DefaultMargin     = 1.0
	DefaultChipMargin = 2.0

	DefaultSpiralStep      = 0.5
	DefaultSpiralSamples   = 12
	DefaultMaxRadiusFactor = 3.0
	DefaultMaxAttempts     = 100
	DefaultFallbackSpacing = 2.0
)

// Options configures placement and convergence.
type Options struct {
	CanvasWidth  float64 `json:"canvas_width,omitempty"`
	CanvasHeight float64 `json:"canvas_height,omitempty"`

	// Clearance is the radial pin-to-component gap used by placement.
	Clearance float64 `json:"clearance,omitempty"`

	// Margin is the required component-component gap; ChipMargin the
	// required component-chip gap.
	Margin     float64 `json:"margin,omitempty"`
	ChipMargin float64 `json:"chip_margin,omitempty"`

	// SpiralStep is the ring radius increment and SpiralSamples the
	// number of angular candidates per ring.
	SpiralStep    float64 `json:"spiral_step,omitempty"`
	SpiralSamples int     `json:"spiral_samples,omitempty"`

	// MaxRadiusFactor bounds the spiral search radius at this multiple
	// of the larger canvas dimension.
	MaxRadiusFactor float64 `json:"max_radius_factor,omitempty"`

	// MaxAttempts caps the total number of resolution attempts across
	// the whole convergence run.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// FallbackSpacing separates unconnected components placed along the
	// fallback axis.
	FallbackSpacing float64 `json:"fallback_spacing,omitempty"`

	validated bool
}

// DefaultOptions returns options with every knob at its default.
func DefaultOptions() Options {
	o := Options{}
	_ = o.ValidateAndSetDefaults()
	return o
}

// ValidateAndSetDefaults fills zero-valued fields with defaults and
// rejects out-of-range values. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.CanvasWidth == 0 {
		o.CanvasWidth = DefaultCanvasWidth
	}
	if o.CanvasHeight == 0 {
		o.CanvasHeight = DefaultCanvasHeight
	}
	if o.Clearance == 0 {
		o.Clearance = DefaultClearance
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.ChipMargin == 0 {
		o.ChipMargin = DefaultChipMargin
	}
	if o.SpiralStep == 0 {
		o.SpiralStep = DefaultSpiralStep
	}
	if o.SpiralSamples == 0 {
		o.SpiralSamples = DefaultSpiralSamples
	}
	if o.MaxRadiusFactor == 0 {
		o.MaxRadiusFactor = DefaultMaxRadiusFactor
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.FallbackSpacing == 0 {
		o.FallbackSpacing = DefaultFallbackSpacing
	}

	if o.CanvasWidth < 0 || o.CanvasHeight < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "canvas dimensions must be positive")
	}
	if o.Clearance < 0 || o.Margin < 0 || o.ChipMargin < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "clearance and margins must not be negative")
	}
	if o.SpiralStep < 0 || o.SpiralSamples < 0 || o.MaxRadiusFactor < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "spiral parameters must be positive")
	}
	if o.MaxAttempts < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "max attempts must be positive")
	}

	o.validated = true
	return nil
}

// maxSearchRadius is the hard bound on the spiral search.
func (o Options) maxSearchRadius() float64 {
	m := o.CanvasWidth
	if o.CanvasHeight > m {
		m = o.CanvasHeight
	}
	return o.MaxRadiusFactor * m
}

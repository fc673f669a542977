// Package render draws converged layouts as schematic images.
//
// The SVG renderer draws the chip package with pin stubs and a
// per-type symbol for every component (resistor zigzag, capacitor
// plates, LED, source circle, ground bars). PNG output rasterizes the
// SVG in process. The schematic Y axis points up; rendering flips it to
// screen coordinates.
package render

import "math"

// Default rendering parameters.
const (
	// DefaultScale is the pixel size of one schematic unit.
	DefaultScale = 40.0

	// canvasMargin pads the drawing around the layout bounds, in
	// schematic units.
	canvasMargin = 2.0
)

// Options configures schematic rendering.
type Options struct {
	// Scale is pixels per schematic unit.
	Scale float64 `json:"scale,omitempty"`

	// Labels draws component IDs and the chip model.
	Labels bool `json:"labels,omitempty"`

	// BBoxes overlays each footprint's bounding box, useful when
	// checking annotation exports against the image.
	BBoxes bool `json:"bboxes,omitempty"`
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return o
}

// transform maps schematic coordinates to pixel coordinates with the Y
// axis flipped and the origin at the canvas top-left corner.
type transform struct {
	originX float64
	originY float64
	scale   float64
}

func (t transform) x(x float64) int { return int(math.Round((x - t.originX) * t.scale)) }
func (t transform) y(y float64) int { return int(math.Round((t.originY - y) * t.scale)) }

// px converts a schematic length to pixels.
func (t transform) px(v float64) int { return int(math.Round(v * t.scale)) }

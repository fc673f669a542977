package layout

import (
	"math"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

// Place builds the initial layout for a circuit: every component gets a
// starting position derived from the lowest-numbered chip pin it is
// wired to, at a radial offset of half its length plus the clearance
// beyond the pin. Components with no resolvable chip connection go to a
// fallback column right of the chip, spaced by index. Placement never
// checks for collisions.
func Place(c *circuit.Circuit, opts Options) (*Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if c.Chip.PinCount <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "chip has no pins")
	}

	l := &Layout{
		Chip:         c.Chip,
		ChipBox:      c.Chip.BBox(),
		CanvasWidth:  opts.CanvasWidth,
		CanvasHeight: opts.CanvasHeight,
	}

	fallbackIdx := 0
	for _, comp := range c.Components {
		w, h := comp.Size()
		if w <= 0 || h <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidGeometry,
				"component %s has a non-positive footprint", comp.ID)
		}

		it := &Item{Comp: comp, Resolved: true}

		pins := c.ComponentPins(comp.ID)
		if len(pins) == 0 {
			it.Unconnected = true
			it.Rotation = rotationFor(comp, 0)
			it.SetPos(fallbackPosition(l.ChipBox, w, opts, fallbackIdx))
			fallbackIdx++
		} else {
			pin := pins[0]
			angle := c.Chip.PinAngle(pin)
			it.Rotation = rotationFor(comp, angle*180/math.Pi)

			pinPos := c.Chip.PinPosition(pin)
			offset := w/2 + opts.Clearance
			it.SetPos(geom.Point{
				X: pinPos.X + math.Cos(angle)*offset,
				Y: pinPos.Y + math.Sin(angle)*offset,
			})
		}

		it.Target = it.Pos
		l.Items = append(l.Items, it)
	}

	return l, nil
}

// rotationFor honors an explicit rotation from the netlist and otherwise
// aligns the component to the given radial direction.
func rotationFor(comp circuit.Component, radialDeg float64) float64 {
	if comp.Params.HasRotation {
		return comp.Params.Rotation
	}
	return radialDeg
}

// fallbackPosition stacks unconnected components in a column to the
// right of the chip.
func fallbackPosition(chipBox geom.Rect, width float64, opts Options, idx int) geom.Point {
	return geom.Point{
		X: chipBox.MaxX + opts.Clearance + width/2,
		Y: chipBox.MaxY + opts.FallbackSpacing*float64(idx+1),
	}
}

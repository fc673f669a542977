package layout

import (
	"math"

	"github.com/schemalab/circuitlay/pkg/geom"
)

// Resolve searches for the nearest free position for the item at index
// idx, treating every other footprint and the chip as fixed obstacles.
//
// Candidates are generated on an outward spiral centered on the item's
// current position: rings of radius step*k for k = 1, 2, …, each ring
// sampled at a fixed number of angles from 0 counterclockwise.
// Increasing-radius then increasing-angle order makes the first accepted
// candidate the closest free position up to the discretization. The
// search stops at the maximum radius; if no candidate is free by then,
// ok is false and the item is left untouched.
func Resolve(l *Layout, idx int, opts Options) (pos geom.Point, ok bool) {
	it := l.Items[idx]
	w, h := it.Comp.Size()
	start := it.Pos
	maxRadius := opts.maxSearchRadius()

	for k := 1; ; k++ {
		r := opts.SpiralStep * float64(k)
		if r > maxRadius {
			return geom.Point{}, false
		}
		for s := 0; s < opts.SpiralSamples; s++ {
			theta := 2 * math.Pi * float64(s) / float64(opts.SpiralSamples)
			cand := geom.Point{
				X: start.X + r*math.Cos(theta),
				Y: start.Y + r*math.Sin(theta),
			}
			if candidateFree(l, idx, geom.Envelope(cand, w, h, it.Rotation), opts) {
				return cand, true
			}
		}
	}
}

// candidateFree tests a candidate bbox against the chip and every item
// except the one being moved.
func candidateFree(l *Layout, idx int, bb geom.Rect, opts Options) bool {
	if bb.OverlapsMargin(l.ChipBox, opts.ChipMargin) {
		return false
	}
	for i, other := range l.Items {
		if i == idx {
			continue
		}
		if bb.OverlapsMargin(other.BBox, opts.Margin) {
			return false
		}
	}
	return true
}

// Package geom provides the 2D primitives for circuit layout: points,
// axis-aligned rectangles, and the rotated-footprint envelope used for
// overlap testing.
//
// All coordinates are in schematic units with the chip at the origin and
// the Y axis pointing up. Renderers and annotation exporters flip to
// screen coordinates at the edge.
package geom

import "math"

// Point is a position in schematic units.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns the point translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle identified by its min/max corners.
// All footprint overlap tests operate on Rects.
type Rect struct {
	MinX float64 `json:"x_min" bson:"x_min"`
	MinY float64 `json:"y_min" bson:"y_min"`
	MaxX float64 `json:"x_max" bson:"x_max"`
	MaxY float64 `json:"y_max" bson:"y_max"`
}

// RectAt builds a rectangle of the given size centered on (cx, cy).
func RectAt(cx, cy, width, height float64) Rect {
	return Rect{
		MinX: cx - width/2,
		MinY: cy - height/2,
		MaxX: cx + width/2,
		MaxY: cy + height/2,
	}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// CenterX returns the horizontal center point.
func (r Rect) CenterX() float64 { return (r.MinX + r.MaxX) / 2 }

// CenterY returns the vertical center point.
func (r Rect) CenterY() float64 { return (r.MinY + r.MaxY) / 2 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{X: r.CenterX(), Y: r.CenterY()} }

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Expand grows the rectangle by m on every side. Negative m shrinks it.
func (r Rect) Expand(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Overlaps reports whether r and o share interior area. Rectangles that
// only touch at an edge or corner do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX &&
		r.MinY < o.MaxY && o.MinY < r.MaxY
}

// OverlapsMargin reports whether r and o come closer than the required
// clearance margin on either axis. With margin 0 this degrades to the
// plain interior-overlap test, so touching footprints stay legal.
func (r Rect) OverlapsMargin(o Rect, margin float64) bool {
	return r.Expand(margin / 2).Overlaps(o.Expand(margin / 2))
}

// Envelope computes the axis-aligned bounding box of a width×height
// footprint centered on c and rotated by deg degrees from the canonical
// horizontal orientation.
//
// Rotations that are exact multiples of 90° swap width and height with no
// inflation. Arbitrary rotations use the envelope of the four rotated
// corners, which conservatively over-covers the true footprint; the
// trade is a small loss of tightness for a cheap, always-correct overlap
// test downstream.
func Envelope(c Point, width, height, deg float64) Rect {
	rot := math.Mod(deg, 360)
	if rot < 0 {
		rot += 360
	}

	if math.Mod(rot, 90) == 0 {
		if math.Mod(rot, 180) != 0 {
			width, height = height, width
		}
		return RectAt(c.X, c.Y, width, height)
	}

	theta := rot * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	ew := width*cos + height*sin
	eh := width*sin + height*cos
	return RectAt(c.X, c.Y, ew, eh)
}

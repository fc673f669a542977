package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
)

const (
	styleChip    = "fill:#e8e8f0;stroke:#333;stroke-width:2"
	stylePin     = "stroke:#333;stroke-width:2"
	styleSymbol  = "fill:none;stroke:#222;stroke-width:2"
	styleFilled  = "fill:#222;stroke:#222;stroke-width:2"
	styleLabel   = "text-anchor:middle;font-size:12px;font-family:sans-serif;fill:#444"
	styleBBox    = "fill:none;stroke:#c33;stroke-width:1;stroke-dasharray:4,3"
	styleUnres   = "fill:none;stroke:#c33;stroke-width:2;stroke-dasharray:6,3"
	pinStubUnits = 0.4
)

// SVG renders the layout as a schematic SVG.
func SVG(l *layout.Layout, opts Options) ([]byte, error) {
	if l == nil || l.Chip.PinCount == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "layout has no chip")
	}
	opts = opts.withDefaults()

	bounds := l.Bounds().Expand(canvasMargin)
	t := transform{originX: bounds.MinX, originY: bounds.MaxY, scale: opts.Scale}
	width := t.px(bounds.Width())
	height := t.px(bounds.Height())

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")

	drawChip(canvas, l, t, opts)
	for _, it := range l.Items {
		drawComponent(canvas, it, t, opts)
	}

	canvas.End()
	return buf.Bytes(), nil
}

func drawChip(canvas *svg.SVG, l *layout.Layout, t transform, opts Options) {
	bb := l.ChipBox
	canvas.Rect(t.x(bb.MinX), t.y(bb.MaxY), t.px(bb.Width()), t.px(bb.Height()), styleChip)

	// Pin stubs point outward from the package boundary.
	for pin := 1; pin <= l.Chip.PinCount; pin++ {
		pos := l.Chip.PinPosition(pin)
		end := pos
		switch {
		case pos.X >= bb.MaxX:
			end.X += pinStubUnits
		case pos.X <= bb.MinX:
			end.X -= pinStubUnits
		case pos.Y >= bb.MaxY:
			end.Y += pinStubUnits
		default:
			end.Y -= pinStubUnits
		}
		canvas.Line(t.x(pos.X), t.y(pos.Y), t.x(end.X), t.y(end.Y), stylePin)
	}

	if opts.Labels {
		canvas.Text(t.x(bb.CenterX()), t.y(bb.CenterY()), l.Chip.Name, styleLabel)
	}
}

func drawComponent(canvas *svg.SVG, it *layout.Item, t transform, opts Options) {
	switch it.Comp.Type {
	case circuit.TypeResistor, circuit.TypeInductor:
		drawResistor(canvas, it, t)
	case circuit.TypeCapacitor:
		drawCapacitor(canvas, it, t)
	case circuit.TypeLED, circuit.TypeDiode:
		drawDiode(canvas, it, t, it.Comp.Type == circuit.TypeLED)
	case circuit.TypeVoltageSource:
		drawSource(canvas, it, t)
	case circuit.TypeGround:
		drawGround(canvas, it, t)
	default:
		bb := it.BBox
		canvas.Rect(t.x(bb.MinX), t.y(bb.MaxY), t.px(bb.Width()), t.px(bb.Height()), styleSymbol)
	}

	if opts.BBoxes || !it.Resolved {
		style := styleBBox
		if !it.Resolved {
			style = styleUnres
		}
		bb := it.BBox
		canvas.Rect(t.x(bb.MinX), t.y(bb.MaxY), t.px(bb.Width()), t.px(bb.Height()), style)
	}

	if opts.Labels {
		label := it.Comp.ID
		if it.Comp.Label != "" {
			label = fmt.Sprintf("%s %s", it.Comp.ID, it.Comp.Label)
		}
		canvas.Text(t.x(it.BBox.CenterX()), t.y(it.BBox.MinY)+14, label, styleLabel)
	}
}

// drawResistor draws lead lines and a zigzag across the footprint's long
// axis.
func drawResistor(canvas *svg.SVG, it *layout.Item, t transform) {
	bb := it.BBox
	cy := bb.CenterY()
	lead := bb.Width() * 0.15
	bodyL, bodyR := bb.MinX+lead, bb.MaxX-lead

	canvas.Line(t.x(bb.MinX), t.y(cy), t.x(bodyL), t.y(cy), styleSymbol)
	canvas.Line(t.x(bodyR), t.y(cy), t.x(bb.MaxX), t.y(cy), styleSymbol)

	const zigs = 6
	amp := bb.Height() * 0.4
	xs := make([]int, 0, zigs+2)
	ys := make([]int, 0, zigs+2)
	xs = append(xs, t.x(bodyL))
	ys = append(ys, t.y(cy))
	step := (bodyR - bodyL) / float64(zigs)
	for i := 0; i < zigs; i++ {
		x := bodyL + step*(float64(i)+0.5)
		y := cy + amp
		if i%2 == 1 {
			y = cy - amp
		}
		xs = append(xs, t.x(x))
		ys = append(ys, t.y(y))
	}
	xs = append(xs, t.x(bodyR))
	ys = append(ys, t.y(cy))
	canvas.Polyline(xs, ys, styleSymbol)
}

// drawCapacitor draws two parallel plates with leads.
func drawCapacitor(canvas *svg.SVG, it *layout.Item, t transform) {
	bb := it.BBox
	cx, cy := bb.CenterX(), bb.CenterY()
	gap := bb.Width() * 0.08
	plateH := bb.Height() * 0.8

	canvas.Line(t.x(bb.MinX), t.y(cy), t.x(cx-gap), t.y(cy), styleSymbol)
	canvas.Line(t.x(cx+gap), t.y(cy), t.x(bb.MaxX), t.y(cy), styleSymbol)
	canvas.Line(t.x(cx-gap), t.y(cy-plateH/2), t.x(cx-gap), t.y(cy+plateH/2), styleSymbol)
	canvas.Line(t.x(cx+gap), t.y(cy-plateH/2), t.x(cx+gap), t.y(cy+plateH/2), styleSymbol)
}

// drawDiode draws the triangle-and-bar symbol; LEDs get two emission
// arrows above the triangle.
func drawDiode(canvas *svg.SVG, it *layout.Item, t transform, led bool) {
	bb := it.BBox
	cx, cy := bb.CenterX(), bb.CenterY()
	half := bb.Width() * 0.2
	amp := bb.Height() * 0.3

	canvas.Line(t.x(bb.MinX), t.y(cy), t.x(cx-half), t.y(cy), styleSymbol)
	canvas.Line(t.x(cx+half), t.y(cy), t.x(bb.MaxX), t.y(cy), styleSymbol)

	canvas.Polygon(
		[]int{t.x(cx - half), t.x(cx - half), t.x(cx + half)},
		[]int{t.y(cy + amp), t.y(cy - amp), t.y(cy)},
		styleFilled,
	)
	canvas.Line(t.x(cx+half), t.y(cy+amp), t.x(cx+half), t.y(cy-amp), styleSymbol)

	if led {
		ax := cx - half*0.5
		ay := cy + amp
		for i := 0; i < 2; i++ {
			off := float64(i) * half * 0.8
			canvas.Line(t.x(ax+off), t.y(ay), t.x(ax+off+half*0.6), t.y(ay+amp*0.8), styleSymbol)
		}
	}
}

// drawSource draws a circle with plus and minus marks.
func drawSource(canvas *svg.SVG, it *layout.Item, t transform) {
	bb := it.BBox
	cx, cy := bb.CenterX(), bb.CenterY()
	r := bb.Width() * 0.35

	canvas.Circle(t.x(cx), t.y(cy), t.px(r), styleSymbol)

	tick := r * 0.3
	canvas.Line(t.x(cx), t.y(cy+r*0.45-tick/2), t.x(cx), t.y(cy+r*0.45+tick/2), styleSymbol)
	canvas.Line(t.x(cx-tick/2), t.y(cy+r*0.45), t.x(cx+tick/2), t.y(cy+r*0.45), styleSymbol)
	canvas.Line(t.x(cx-tick/2), t.y(cy-r*0.45), t.x(cx+tick/2), t.y(cy-r*0.45), styleSymbol)
}

// drawGround draws the three-bar ground symbol.
func drawGround(canvas *svg.SVG, it *layout.Item, t transform) {
	bb := it.BBox
	cx := bb.CenterX()

	canvas.Line(t.x(cx), t.y(bb.MaxY), t.x(cx), t.y(bb.CenterY()), styleSymbol)
	widths := []float64{0.8, 0.5, 0.2}
	for i, f := range widths {
		w := bb.Width() * f
		y := bb.CenterY() - bb.Height()*0.15*float64(i)
		canvas.Line(t.x(cx-w/2), t.y(y), t.x(cx+w/2), t.y(y), styleSymbol)
	}
}

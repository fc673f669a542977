package render

import (
	"strings"
	"testing"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/geom"
	"github.com/schemalab/circuitlay/pkg/layout"
)

func sampleLayout() *layout.Layout {
	chip := circuit.Chip{Name: "NE555", PinCount: 8}
	l := &layout.Layout{
		Chip:         chip,
		ChipBox:      chip.BBox(),
		CanvasWidth:  40,
		CanvasHeight: 30,
	}

	items := []struct {
		id  string
		typ circuit.Type
		pos geom.Point
	}{
		{"R1", circuit.TypeResistor, geom.Point{X: 8, Y: 0}},
		{"C1", circuit.TypeCapacitor, geom.Point{X: -8, Y: 0}},
		{"D1", circuit.TypeLED, geom.Point{X: 0, Y: 6}},
		{"V1", circuit.TypeVoltageSource, geom.Point{X: 0, Y: -7}},
		{"G1", circuit.TypeGround, geom.Point{X: 8, Y: 6}},
	}
	for _, s := range items {
		it := &layout.Item{Comp: circuit.Component{ID: s.id, Type: s.typ}, Resolved: true}
		it.SetPos(s.pos)
		l.Items = append(l.Items, it)
	}
	return l
}

func TestSVG(t *testing.T) {
	data, err := SVG(sampleLayout(), Options{Labels: true})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"<svg",
		"</svg>",
		"<rect",      // chip package and background
		"<polyline",  // resistor zigzag
		"<polygon",   // diode triangle
		"<circle",    // voltage source
		">NE555<",    // chip label
		">R1<",       // component label
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestSVGBBoxOverlay(t *testing.T) {
	plain, err := SVG(sampleLayout(), Options{})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	boxed, err := SVG(sampleLayout(), Options{BBoxes: true})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	if strings.Count(string(boxed), "stroke-dasharray") <= strings.Count(string(plain), "stroke-dasharray") {
		t.Error("BBoxes option should add dashed overlays")
	}
}

func TestSVGMarksUnresolved(t *testing.T) {
	l := sampleLayout()
	l.Items[0].Resolved = false

	data, err := SVG(l, Options{})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	if !strings.Contains(string(data), "stroke-dasharray") {
		t.Error("unresolved component should get a dashed highlight")
	}
}

func TestSVGRequiresChip(t *testing.T) {
	if _, err := SVG(&layout.Layout{}, Options{}); err == nil {
		t.Error("expected error for layout without chip")
	}
	if _, err := SVG(nil, Options{}); err == nil {
		t.Error("expected error for nil layout")
	}
}

func TestSVGScale(t *testing.T) {
	small, err := SVG(sampleLayout(), Options{Scale: 10})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	large, err := SVG(sampleLayout(), Options{Scale: 40})
	if err != nil {
		t.Fatalf("SVG() error: %v", err)
	}
	if len(small) == 0 || len(large) == 0 {
		t.Fatal("empty output")
	}
	if strings.Contains(string(small), `width="`) && string(small) == string(large) {
		t.Error("scale should change output dimensions")
	}
}

func TestPNG(t *testing.T) {
	data, err := PNG(sampleLayout(), Options{Scale: 10}, 0)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	// PNG magic bytes
	if len(data) < 8 || data[0] != 0x89 || string(data[1:4]) != "PNG" {
		t.Errorf("output is not a PNG (first bytes %x)", data[:min(8, len(data))])
	}
}

func TestPNGResize(t *testing.T) {
	full, err := PNG(sampleLayout(), Options{Scale: 20}, 0)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	capped, err := PNG(sampleLayout(), Options{Scale: 20}, 100)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	if len(capped) >= len(full) {
		t.Error("width-capped PNG should be smaller than the native render")
	}
}

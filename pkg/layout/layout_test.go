package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if o.Margin != DefaultMargin || o.ChipMargin != DefaultChipMargin {
		t.Errorf("margins = %v / %v", o.Margin, o.ChipMargin)
	}
	if o.SpiralStep != DefaultSpiralStep || o.SpiralSamples != DefaultSpiralSamples {
		t.Errorf("spiral = %v / %v", o.SpiralStep, o.SpiralSamples)
	}

	// Idempotent: a second call must not change anything.
	before := o
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation failed: %v", err)
	}
	if o != before {
		t.Errorf("validation not idempotent: %+v != %+v", o, before)
	}
}

func TestOptionsRejectNegatives(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative canvas", Options{CanvasWidth: -1}},
		{"negative margin", Options{Margin: -0.5}},
		{"negative spiral step", Options{SpiralStep: -1}},
		{"negative attempts", Options{MaxAttempts: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestItemSetPosRecomputesBBox(t *testing.T) {
	it := &Item{Comp: circuit.Component{ID: "R1", Type: circuit.TypeResistor}}
	it.SetPos(geom.Point{X: 5, Y: 5})
	first := it.BBox
	it.SetPos(geom.Point{X: 10, Y: 5})
	if it.BBox == first {
		t.Error("bbox not recomputed after SetPos")
	}
	if it.BBox.CenterX() != 10 || it.BBox.CenterY() != 5 {
		t.Errorf("bbox center = (%v, %v)", it.BBox.CenterX(), it.BBox.CenterY())
	}

	// The 90 degree swap is exact on the corners; Width subtracts two
	// floats whose difference carries rounding, so compare with an
	// epsilon.
	it.SetRotation(90)
	if math.Abs(it.BBox.Width()-0.8) > 1e-9 || math.Abs(it.BBox.Height()-3.0) > 1e-9 {
		t.Errorf("rotated bbox = %v x %v, want 0.8 x 3.0", it.BBox.Width(), it.BBox.Height())
	}
}

func twoResistorCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Name: "pair",
		Chip: circuit.Chip{Name: "U1", PinCount: 2},
		Components: []circuit.Component{
			{ID: "R1", Type: circuit.TypeResistor, Params: circuit.Params{Length: 3.0}},
			{ID: "R2", Type: circuit.TypeResistor, Params: circuit.Params{Length: 3.0}},
		},
		Nets: []circuit.Net{
			{ChipPin: 1, ComponentID: "R1"},
			{ChipPin: 1, ComponentID: "R2"},
		},
	}
}

func TestPlaceIsDeterministic(t *testing.T) {
	c := twoResistorCircuit()
	a, err := Place(c, DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	b, err := Place(c, DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	for i := range a.Items {
		if a.Items[i].Pos != b.Items[i].Pos {
			t.Errorf("item %d position differs across runs: %+v vs %+v", i, a.Items[i].Pos, b.Items[i].Pos)
		}
	}
}

func TestPlaceRadialOffset(t *testing.T) {
	c := twoResistorCircuit()
	opts := DefaultOptions()
	l, err := Place(c, opts)
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}

	// Both resistors share pin 1, which points along +X, so both land at
	// the same radial position: pin x + half length + clearance.
	pin := c.Chip.PinPosition(1)
	w, _ := c.Components[0].Size()
	wantX := pin.X + w/2 + opts.Clearance
	for _, it := range l.Items {
		if math.Abs(it.Pos.X-wantX) > 1e-9 || math.Abs(it.Pos.Y) > 1e-9 {
			t.Errorf("%s at %+v, want (%v, 0)", it.Comp.ID, it.Pos, wantX)
		}
	}
	if l.Items[0].Pos != l.Items[1].Pos {
		t.Error("resistors wired to the same pin should start at the same position")
	}
}

func TestPlaceExplicitRotationWins(t *testing.T) {
	c := &circuit.Circuit{
		Chip: circuit.Chip{Name: "U1", PinCount: 4},
		Components: []circuit.Component{
			{ID: "R1", Type: circuit.TypeResistor, Params: circuit.Params{Rotation: 45, HasRotation: true}},
			{ID: "R2", Type: circuit.TypeResistor},
		},
		Nets: []circuit.Net{
			{ChipPin: 2, ComponentID: "R1"},
			{ChipPin: 2, ComponentID: "R2"},
		},
	}
	l, err := Place(c, DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	if l.Items[0].Rotation != 45 {
		t.Errorf("explicit rotation = %v, want 45", l.Items[0].Rotation)
	}
	// Pin 2 of a 4-pin chip points along +Y, so the default rotation is
	// the radial angle.
	if math.Abs(l.Items[1].Rotation-90) > 1e-9 {
		t.Errorf("radial default rotation = %v, want 90", l.Items[1].Rotation)
	}
}

func TestPlaceUnconnectedFallback(t *testing.T) {
	c := &circuit.Circuit{
		Chip: circuit.Chip{Name: "U1", PinCount: 8},
		Components: []circuit.Component{
			{ID: "G1", Type: circuit.TypeGround},
			{ID: "G2", Type: circuit.TypeGround},
		},
	}
	l, err := Place(c, DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	for _, it := range l.Items {
		if !it.Unconnected {
			t.Errorf("%s not flagged unconnected", it.Comp.ID)
		}
		if it.Pos.X <= l.ChipBox.MaxX {
			t.Errorf("%s fallback position %+v overlaps chip column", it.Comp.ID, it.Pos)
		}
	}
	if l.Items[0].Pos == l.Items[1].Pos {
		t.Error("fallback positions must be spaced by index")
	}

	if got := l.Unconnected(); len(got) != 2 || got[0] != "G1" || got[1] != "G2" {
		t.Errorf("Unconnected() = %v, want [G1 G2]", got)
	}
	if !errors.Is(l.UnconnectedErr(), errors.ErrCodeUnresolvableNet) {
		t.Errorf("UnconnectedErr() = %v, want unresolvable net code", l.UnconnectedErr())
	}
}

func TestLayoutErrorKeepsLiteralComponentID(t *testing.T) {
	// IDs flow into error messages as format arguments, never as part
	// of the format string, so a percent sign must survive verbatim.
	c := &circuit.Circuit{
		Chip:       circuit.Chip{Name: "U1", PinCount: 2},
		Components: []circuit.Component{{ID: "R%d", Type: circuit.TypeResistor}},
	}
	l, err := Place(c, DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	msg := l.UnconnectedErr().Error()
	if !strings.Contains(msg, "R%d") {
		t.Errorf("message %q mangles the component id", msg)
	}
}

func TestLayoutUnconnectedErrNilWhenWired(t *testing.T) {
	l, err := Place(twoResistorCircuit(), DefaultOptions())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	if err := l.UnconnectedErr(); err != nil {
		t.Errorf("UnconnectedErr() = %v, want nil", err)
	}
}

func TestDetectOrderAndMargins(t *testing.T) {
	c := twoResistorCircuit()
	opts := DefaultOptions()
	l, err := Place(c, opts)
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}

	// Identical initial positions collide. They also start only the
	// 0.5 clearance past the pin edge, inside the 2.0 chip margin, so
	// each collides with the chip as well.
	collisions := Detect(l, opts)
	if len(collisions) == 0 {
		t.Fatal("expected collisions for co-located resistors")
	}
	if collisions[0].A != "R1" || collisions[0].B != "R2" {
		t.Errorf("first pair = %+v, want component pair before chip pairs", collisions[0])
	}
	for i, col := range collisions {
		if col.InvolvesChip() {
			for _, later := range collisions[i:] {
				if !later.InvolvesChip() {
					t.Error("chip pairs must come after component pairs")
				}
			}
			break
		}
	}
}

func TestDetectEmptyForSeparatedItems(t *testing.T) {
	opts := DefaultOptions()
	l := &Layout{
		Chip:    circuit.Chip{Name: "U1", PinCount: 8},
		ChipBox: circuit.Chip{Name: "U1", PinCount: 8}.BBox(),
	}
	a := &Item{Comp: circuit.Component{ID: "R1", Type: circuit.TypeResistor}, Resolved: true}
	a.SetPos(geom.Point{X: 12, Y: 0})
	b := &Item{Comp: circuit.Component{ID: "R2", Type: circuit.TypeResistor}, Resolved: true}
	b.SetPos(geom.Point{X: -12, Y: 0})
	l.Items = []*Item{a, b}

	if got := Detect(l, opts); len(got) != 0 {
		t.Errorf("Detect() = %+v, want empty", got)
	}
}

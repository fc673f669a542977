package circuit

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseType(t *testing.T) {
	for _, known := range Types() {
		if _, err := ParseType(string(known)); err != nil {
			t.Errorf("ParseType(%q) returned error: %v", known, err)
		}
	}
	if _, err := ParseType("transistor"); err == nil {
		t.Error("ParseType accepted unknown type")
	}
}

func TestDefaultSize(t *testing.T) {
	tests := []struct {
		typ           Type
		wantW, wantH  float64
	}{
		{TypeResistor, 3.0, 0.8},
		{TypeCapacitor, 2.0, 1.5},
		{TypeLED, 1.5, 1.5},
		{TypeVoltageSource, 2.5, 2.5},
		{TypeGround, 1.2, 1.2},
	}
	for _, tt := range tests {
		w, h := DefaultSize(tt.typ)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("DefaultSize(%s) = %v x %v, want %v x %v", tt.typ, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestSizeFromParams(t *testing.T) {
	tests := []struct {
		name          string
		typ           Type
		params        Params
		wantW, wantH  float64
	}{
		{
			name:   "resistor from length and loops",
			typ:    TypeResistor,
			params: Params{Length: 3.0, Loops: 6},
			wantW:  3.5,
			wantH:  1.2,
		},
		{
			name:   "resistor without params uses default",
			typ:    TypeResistor,
			params: Params{},
			wantW:  3.0,
			wantH:  0.8,
		},
		{
			name:   "capacitor from width and length",
			typ:    TypeCapacitor,
			params: Params{Width: 1.5, Length: 0.8},
			wantW:  2.0,
			wantH:  1.8,
		},
		{
			name:   "led adds clearance on both axes",
			typ:    TypeLED,
			params: Params{Width: 1.0, Length: 1.0},
			wantW:  1.5,
			wantH:  1.5,
		},
		{
			name:   "voltage source is square from radius",
			typ:    TypeVoltageSource,
			params: Params{Radius: 1.0},
			wantW:  2.4,
			wantH:  2.4,
		},
		{
			name:   "ground ignores params",
			typ:    TypeGround,
			params: Params{Length: 9},
			wantW:  1.2,
			wantH:  1.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := SizeFromParams(tt.typ, tt.params)
			if math.Abs(w-tt.wantW) > 1e-9 || math.Abs(h-tt.wantH) > 1e-9 {
				t.Errorf("SizeFromParams() = %v x %v, want %v x %v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestChipSize(t *testing.T) {
	// Defaults: spacing 1.5, pad 1.5, leadlen 1.0. Height covers
	// ceil(pins/2)-1 spacings plus a pad at each end; width is the body
	// plus a lead on each side.
	tests := []struct {
		pins         int
		wantW, wantH float64
	}{
		{8, 4.5, 7.5},
		{14, 4.5, 12.0},
		{16, 4.5, 13.5},
		{20, 4.5, 16.5},
	}
	for _, tt := range tests {
		c := Chip{Name: "U1", PinCount: tt.pins}
		w, h := c.Size()
		if math.Abs(w-tt.wantW) > 1e-9 || math.Abs(h-tt.wantH) > 1e-9 {
			t.Errorf("Chip{%d pins}.Size() = %v x %v, want %v x %v", tt.pins, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestChipSizeHonorsParams(t *testing.T) {
	c := Chip{Name: "U1", PinCount: 8, PinSpacing: 1.0, PinPad: 1.0, LeadLength: 0.5}
	w, h := c.Size()
	if math.Abs(w-3.5) > 1e-9 || math.Abs(h-5.0) > 1e-9 {
		t.Errorf("Size() = %v x %v, want 3.5 x 5.0", w, h)
	}
}

func TestChipBBoxCenteredOnOrigin(t *testing.T) {
	c := Chip{Name: "U1", PinCount: 8}
	bb := c.BBox()
	if bb.CenterX() != 0 || bb.CenterY() != 0 {
		t.Errorf("chip bbox center = (%v, %v), want origin", bb.CenterX(), bb.CenterY())
	}
}

func TestChipPinAngle(t *testing.T) {
	c := Chip{Name: "U1", PinCount: 8}
	if got := c.PinAngle(1); got != 0 {
		t.Errorf("PinAngle(1) = %v, want 0", got)
	}
	if got := c.PinAngle(3); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("PinAngle(3) = %v, want pi/2", got)
	}
	if got := c.PinAngle(5); math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("PinAngle(5) = %v, want pi", got)
	}
}

func TestChipPinPositionOnBoundary(t *testing.T) {
	c := Chip{Name: "U1", PinCount: 8}
	w, h := c.Size()

	// Pin 1 points along +X and must land on the right edge.
	p := c.PinPosition(1)
	if math.Abs(p.X-w/2) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("PinPosition(1) = %+v, want (%v, 0)", p, w/2)
	}

	// Pin 3 points along +Y and must land on the top edge.
	p = c.PinPosition(3)
	if math.Abs(p.Y-h/2) > 1e-9 || math.Abs(p.X) > 1e-9 {
		t.Errorf("PinPosition(3) = %+v, want (0, %v)", p, h/2)
	}

	// Every pin must sit on the bbox boundary.
	bb := c.BBox()
	for pin := 1; pin <= c.PinCount; pin++ {
		p := c.PinPosition(pin)
		onX := math.Abs(math.Abs(p.X)-w/2) < 1e-9
		onY := math.Abs(math.Abs(p.Y)-h/2) < 1e-9
		inside := p.X >= bb.MinX-1e-9 && p.X <= bb.MaxX+1e-9 && p.Y >= bb.MinY-1e-9 && p.Y <= bb.MaxY+1e-9
		if !inside || (!onX && !onY) {
			t.Errorf("pin %d position %+v is not on the chip boundary", pin, p)
		}
	}
}

func TestComponentPins(t *testing.T) {
	c := &Circuit{
		Chip: Chip{Name: "U1", PinCount: 8},
		Components: []Component{
			{ID: "R1", Type: TypeResistor},
			{ID: "C1", Type: TypeCapacitor},
		},
		Nets: []Net{
			{ChipPin: 5, ComponentID: "R1"},
			{ChipPin: 2, ComponentID: "R1"},
			{ChipPin: 3, ComponentID: "C1"},
		},
	}

	pins := c.ComponentPins("R1")
	if len(pins) != 2 || pins[0] != 2 || pins[1] != 5 {
		t.Errorf("ComponentPins(R1) = %v, want [2 5]", pins)
	}
	if pins := c.ComponentPins("X9"); len(pins) != 0 {
		t.Errorf("ComponentPins(X9) = %v, want empty", pins)
	}
}

func TestParamsJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"explicit rotation", Params{Rotation: 45, HasRotation: true}},
		{"explicit zero rotation", Params{HasRotation: true}},
		{"no rotation", Params{Length: 3.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Circuit{
				Chip:       Chip{Name: "U1", PinCount: 8},
				Components: []Component{{ID: "R1", Type: TypeResistor, Params: tt.params}},
			}
			data, err := json.Marshal(in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out Circuit
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got := out.Components[0].Params
			if got != tt.params {
				t.Errorf("params after round trip = %+v, want %+v", got, tt.params)
			}
		})
	}
}

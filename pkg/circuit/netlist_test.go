package circuit

import (
	"strings"
	"testing"

	"github.com/schemalab/circuitlay/pkg/errors"
)

const sampleNetlist = `{
  "name": "blinker",
  "chip": {
    "model": "NE555",
    "package": "DIP-8",
    "pin_count": 8,
    "pin_definitions": [
      {"number": 1, "name": "GND"},
      {"number": 8, "name": "VCC"}
    ]
  },
  "components": [
    {"id": "R1", "type": "resistor", "label": "10k", "params": {"length": 3.0, "loops": 6}},
    {"id": "C1", "type": "capacitor", "value": "100nF"},
    {"id": "D1", "type": "led", "params": {"rotation": 0}}
  ],
  "nets": [
    {"net_id": "N1", "connections": [
      {"type": "chip_pin", "pin_number": 7},
      {"type": "component_port", "component_id": "R1", "port": 1}
    ]},
    {"net_id": "N2", "connections": [
      {"type": "chip_pin", "pin_number": 2},
      {"type": "chip_pin", "pin_number": 6},
      {"type": "component_port", "component_id": "C1"}
    ]},
    {"net_id": "N3", "connections": [
      {"type": "chip_pin", "pin_number": 3},
      {"type": "component_port", "component": "D1"}
    ]}
  ]
}`

func TestParseNetlist(t *testing.T) {
	c, err := ParseNetlist(strings.NewReader(sampleNetlist))
	if err != nil {
		t.Fatalf("ParseNetlist() error: %v", err)
	}

	if c.Name != "blinker" {
		t.Errorf("name = %q, want blinker", c.Name)
	}
	if c.Chip.Name != "NE555" || c.Chip.PinCount != 8 {
		t.Errorf("chip = %+v", c.Chip)
	}
	if len(c.Components) != 3 {
		t.Fatalf("components = %d, want 3", len(c.Components))
	}

	r1, ok := c.Component("R1")
	if !ok {
		t.Fatal("R1 missing")
	}
	if r1.Params.Length != 3.0 || r1.Params.Loops != 6 {
		t.Errorf("R1 params = %+v", r1.Params)
	}
	if r1.Label != "10k" {
		t.Errorf("R1 label = %q", r1.Label)
	}

	c1, _ := c.Component("C1")
	if c1.Label != "100nF" {
		t.Errorf("C1 label = %q, want value fallback", c1.Label)
	}

	d1, _ := c.Component("D1")
	if !d1.Params.HasRotation || d1.Params.Rotation != 0 {
		t.Errorf("D1 explicit zero rotation lost: %+v", d1.Params)
	}

	// N2 touches two chip pins and one component, so it flattens to two
	// pairs; four pairs total.
	if len(c.Nets) != 4 {
		t.Fatalf("nets = %d, want 4: %+v", len(c.Nets), c.Nets)
	}
	pins := c.ComponentPins("C1")
	if len(pins) != 2 || pins[0] != 2 || pins[1] != 6 {
		t.Errorf("C1 pins = %v, want [2 6]", pins)
	}
}

func TestParseNetlistErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode errors.Code
	}{
		{
			name:     "malformed json",
			input:    `{"chip":`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "missing chip model",
			input:    `{"chip": {"pin_count": 8}, "components": [], "nets": []}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "no pins",
			input:    `{"chip": {"model": "X"}, "components": [], "nets": []}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "unknown component type",
			input:    `{"chip": {"model": "X", "pin_count": 8}, "components": [{"id": "Q1", "type": "transistor"}], "nets": []}`,
			wantCode: errors.ErrCodeUnknownType,
		},
		{
			name:     "duplicate component id",
			input:    `{"chip": {"model": "X", "pin_count": 8}, "components": [{"id": "R1", "type": "resistor"}, {"id": "R1", "type": "resistor"}], "nets": []}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "non-positive length",
			input:    `{"chip": {"model": "X", "pin_count": 8}, "components": [{"id": "R1", "type": "resistor", "params": {"length": -1}}], "nets": []}`,
			wantCode: errors.ErrCodeInvalidGeometry,
		},
		{
			name: "pin out of range",
			input: `{"chip": {"model": "X", "pin_count": 8}, "components": [{"id": "R1", "type": "resistor"}],
				"nets": [{"net_id": "N1", "connections": [{"type": "chip_pin", "pin_number": 9}, {"type": "component_port", "component_id": "R1"}]}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name: "unknown component in net",
			input: `{"chip": {"model": "X", "pin_count": 8}, "components": [],
				"nets": [{"net_id": "N1", "connections": [{"type": "chip_pin", "pin_number": 1}, {"type": "component_port", "component_id": "R9"}]}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "non-positive chip spacing",
			input:    `{"chip": {"model": "X", "pin_count": 8, "params": {"spacing": 0}}, "components": [], "nets": []}`,
			wantCode: errors.ErrCodeInvalidGeometry,
		},
		{
			name: "unknown endpoint type",
			input: `{"chip": {"model": "X", "pin_count": 8}, "components": [],
				"nets": [{"net_id": "N1", "connections": [{"type": "bus", "pin_number": 1}]}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNetlist(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestParseNetlistFileNotFound(t *testing.T) {
	_, err := ParseNetlistFile("/nonexistent/netlist.json")
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("code = %v, want file not found", errors.GetCode(err))
	}
}

func TestParseNetlistChipParams(t *testing.T) {
	input := `{
	  "chip": {"model": "X", "pin_count": 8, "params": {"spacing": 1.0, "pad": 1.0, "leadlen": 0.5}},
	  "components": [], "nets": []
	}`
	c, err := ParseNetlist(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseNetlist() error: %v", err)
	}
	if c.Chip.PinSpacing != 1.0 || c.Chip.PinPad != 1.0 || c.Chip.LeadLength != 0.5 {
		t.Errorf("chip geometry = %+v", c.Chip)
	}
	w, h := c.Chip.Size()
	if w != 3.5 || h != 5.0 {
		t.Errorf("chip size = %v x %v, want 3.5 x 5.0", w, h)
	}
}

func TestParseNetlistPinCountFromDefinitions(t *testing.T) {
	input := `{
	  "chip": {"model": "X", "pin_definitions": [{"number": 1}, {"number": 2}, {"number": 3}]},
	  "components": [], "nets": []
	}`
	c, err := ParseNetlist(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseNetlist() error: %v", err)
	}
	if c.Chip.PinCount != 3 {
		t.Errorf("pin count = %d, want 3", c.Chip.PinCount)
	}
}

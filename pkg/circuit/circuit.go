// Package circuit defines the electrical model consumed by the layout
// engine: component types with default footprints, nets connecting chip
// pins to component pins, and the central chip whose package size is
// derived from its pin count.
package circuit

import (
	"math"
	"sort"

	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

// Type identifies a kind of circuit component.
type Type string

const (
	TypeResistor      Type = "resistor"
	TypeCapacitor     Type = "capacitor"
	TypeLED           Type = "led"
	TypeVoltageSource Type = "voltage_source"
	TypeGround        Type = "ground"
	TypeDiode         Type = "diode"
	TypeInductor      Type = "inductor"
)

// Types lists every supported component type in declaration order.
func Types() []Type {
	return []Type{
		TypeResistor,
		TypeCapacitor,
		TypeLED,
		TypeVoltageSource,
		TypeGround,
		TypeDiode,
		TypeInductor,
	}
}

// ParseType validates a raw type string.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownType, "unknown component type %q", s)
}

// defaultSizes holds the canonical footprint per type in schematic units,
// width first, for the unrotated horizontal orientation.
var defaultSizes = map[Type][2]float64{
	TypeResistor:      {3.0, 0.8},
	TypeCapacitor:     {2.0, 1.5},
	TypeLED:           {1.5, 1.5},
	TypeVoltageSource: {2.5, 2.5},
	TypeGround:        {1.2, 1.2},
	TypeDiode:         {2.5, 1.0},
	TypeInductor:      {3.0, 1.2},
}

// DefaultSize returns the canonical width and height for a component type.
func DefaultSize(t Type) (width, height float64) {
	if s, ok := defaultSizes[t]; ok {
		return s[0], s[1]
	}
	return 2.0, 1.0
}

// Params carries the optional physical parameters a netlist may attach to
// a component. Zero values mean "unset".
type Params struct {
	Length   float64 `json:"length,omitempty" bson:"length,omitempty"`
	Width    float64 `json:"width,omitempty" bson:"width,omitempty"`
	Radius   float64 `json:"radius,omitempty" bson:"radius,omitempty"`
	Loops    int     `json:"loops,omitempty" bson:"loops,omitempty"`
	Rotation float64 `json:"rotation,omitempty" bson:"rotation,omitempty"`
	// HasRotation distinguishes an explicit 0° rotation from an absent
	// one. It must survive serialization so a circuit restored from
	// cache keeps its explicit rotations.
	HasRotation bool `json:"has_rotation,omitempty" bson:"has_rotation,omitempty"`
}

// SizeFromParams derives a component footprint from its physical
// parameters, falling back to the type default when the relevant
// parameters are unset.
func SizeFromParams(t Type, p Params) (width, height float64) {
	width, height = DefaultSize(t)
	switch t {
	case TypeResistor:
		if p.Length > 0 {
			width = p.Length + 0.5
			height = 0.6 + float64(p.Loops)/10
		}
	case TypeCapacitor:
		if p.Width > 0 {
			width = p.Width + 0.5
		}
		if p.Length > 0 {
			height = p.Length + 1.0
		}
	case TypeLED, TypeDiode:
		if p.Width > 0 {
			width = p.Width + 0.5
		}
		if p.Length > 0 {
			height = p.Length + 0.5
		}
	case TypeVoltageSource:
		if p.Radius > 0 {
			side := p.Radius*2 + 0.4
			width, height = side, side
		}
	}
	return width, height
}

// Component is a single placeable part.
type Component struct {
	ID     string `json:"id" bson:"id"`
	Type   Type   `json:"type" bson:"type"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Params Params `json:"params,omitempty" bson:"params,omitempty"`
}

// Size returns the component footprint, honoring physical parameters.
func (c Component) Size() (width, height float64) {
	return SizeFromParams(c.Type, c.Params)
}

// Net is a flattened electrical connection between one chip pin and one
// component. Multi-endpoint nets in the wire format expand to several
// Net values during parsing.
type Net struct {
	ChipPin     int    `json:"chip_pin" bson:"chip_pin"`
	ComponentID string `json:"component" bson:"component"`
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
}

// Chip is the central IC. It sits at the origin and is never moved.
// PinSpacing, PinPad and LeadLength are optional geometry overrides
// supplied by the netlist; zero values use the package defaults.
type Chip struct {
	Name     string `json:"name" bson:"name"`
	PinCount int    `json:"pin_count" bson:"pin_count"`

	PinSpacing float64 `json:"pin_spacing,omitempty" bson:"pin_spacing,omitempty"`
	PinPad     float64 `json:"pin_pad,omitempty" bson:"pin_pad,omitempty"`
	LeadLength float64 `json:"lead_length,omitempty" bson:"lead_length,omitempty"`
}

// Default chip geometry: pin-to-pin spacing along the package side,
// pad beyond the outermost pins, and lead length beyond the body.
const (
	DefaultPinSpacing = 1.5
	DefaultPinPad     = 1.5
	DefaultLeadLength = 1.0

	chipBodyWidth = 2.5
)

func (c Chip) pinSpacing() float64 {
	if c.PinSpacing > 0 {
		return c.PinSpacing
	}
	return DefaultPinSpacing
}

func (c Chip) pinPad() float64 {
	if c.PinPad > 0 {
		return c.PinPad
	}
	return DefaultPinPad
}

func (c Chip) leadLength() float64 {
	if c.LeadLength > 0 {
		return c.LeadLength
	}
	return DefaultLeadLength
}

// Size returns the chip footprint including lead allowance on both
// sides. The body height grows with the pin count: pins split across
// the two long sides at PinSpacing apart, padded by PinPad at each end.
func (c Chip) Size() (width, height float64) {
	rows := (c.PinCount + 1) / 2
	if rows < 1 {
		rows = 1
	}
	height = c.pinSpacing()*float64(rows-1) + 2*c.pinPad()
	width = chipBodyWidth + 2*c.leadLength()
	return width, height
}

// BBox returns the chip footprint centered on the origin.
func (c Chip) BBox() geom.Rect {
	w, h := c.Size()
	return geom.RectAt(0, 0, w, h)
}

// PinAngle returns the outward direction of a 1-based pin, in radians.
// Pins are distributed evenly around the package counterclockwise
// starting from the +X axis.
func (c Chip) PinAngle(pin int) float64 {
	if c.PinCount <= 0 {
		return 0
	}
	return 2 * math.Pi * float64(pin-1) / float64(c.PinCount)
}

// PinPosition returns the point where a pin's lead meets the package
// boundary: the intersection of the outward pin ray with the chip bbox.
func (c Chip) PinPosition(pin int) geom.Point {
	angle := c.PinAngle(pin)
	dx, dy := math.Cos(angle), math.Sin(angle)
	w, h := c.Size()
	hw, hh := w/2, h/2

	// Scale the unit ray until it hits the nearer bbox edge.
	scale := math.Inf(1)
	if dx != 0 {
		scale = hw / math.Abs(dx)
	}
	if dy != 0 {
		if s := hh / math.Abs(dy); s < scale {
			scale = s
		}
	}
	if math.IsInf(scale, 1) {
		scale = 0
	}
	return geom.Point{X: dx * scale, Y: dy * scale}
}

// Circuit is a parsed netlist ready for layout.
type Circuit struct {
	Name       string      `json:"name,omitempty" bson:"name,omitempty"`
	Chip       Chip        `json:"chip" bson:"chip"`
	Components []Component `json:"components" bson:"components"`
	Nets       []Net       `json:"nets" bson:"nets"`
}

// Component returns the component with the given ID, or false.
func (c *Circuit) Component(id string) (Component, bool) {
	for _, comp := range c.Components {
		if comp.ID == id {
			return comp, true
		}
	}
	return Component{}, false
}

// ComponentPins returns the chip pins a component connects to, sorted
// ascending. Components absent from every net return an empty slice.
func (c *Circuit) ComponentPins(id string) []int {
	var pins []int
	for _, n := range c.Nets {
		if n.ComponentID == id {
			pins = append(pins, n.ChipPin)
		}
	}
	sort.Ints(pins)
	return pins
}

package circuit

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/schemalab/circuitlay/pkg/errors"
)

// =============================================================================
// Netlist wire format
// =============================================================================

// rawNetlist mirrors the on-disk netlist JSON. Nets use typed connection
// endpoints so a single net can fan out to several chip pins and
// components; parsing flattens them into chip-pin/component pairs.
type rawNetlist struct {
	Name       string         `json:"name"`
	Chip       rawChip        `json:"chip"`
	Components []rawComponent `json:"components"`
	Nets       []rawNet       `json:"nets"`
}

type rawChip struct {
	Model          string         `json:"model"`
	Package        string         `json:"package,omitempty"`
	PinCount       int            `json:"pin_count"`
	Params         *rawChipParams `json:"params,omitempty"`
	PinDefinitions []rawPin       `json:"pin_definitions,omitempty"`
}

// rawChipParams carries optional chip geometry overrides.
type rawChipParams struct {
	Spacing *float64 `json:"spacing,omitempty"`
	Pad     *float64 `json:"pad,omitempty"`
	LeadLen *float64 `json:"leadlen,omitempty"`
}

type rawPin struct {
	Number int    `json:"number"`
	Name   string `json:"name,omitempty"`
}

type rawComponent struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Label  string     `json:"label,omitempty"`
	Value  string     `json:"value,omitempty"`
	Params *rawParams `json:"params,omitempty"`
}

type rawParams struct {
	Length   *float64 `json:"length,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	Loops    *int     `json:"loops,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

type rawNet struct {
	NetID       string          `json:"net_id"`
	Connections []rawConnection `json:"connections"`
}

// rawConnection is one endpoint of a net. Type is "chip_pin" or
// "component_port".
type rawConnection struct {
	Type        string `json:"type"`
	PinNumber   int    `json:"pin_number,omitempty"`
	ComponentID string `json:"component_id,omitempty"`
	// Component is a legacy alias for ComponentID still found in older
	// netlists.
	Component string `json:"component,omitempty"`
	Port      int    `json:"port,omitempty"`
}

const (
	connChipPin       = "chip_pin"
	connComponentPort = "component_port"
)

// =============================================================================
// Parsing
// =============================================================================

// ParseNetlist decodes and validates a netlist from r.
func ParseNetlist(r io.Reader) (*Circuit, error) {
	var raw rawNetlist
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "failed to decode netlist JSON")
	}
	return buildCircuit(&raw)
}

// ParseNetlistFile reads and parses a netlist from disk.
func ParseNetlistFile(path string) (*Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to open netlist: %s", path)
	}
	defer f.Close()
	return ParseNetlist(f)
}

func buildCircuit(raw *rawNetlist) (*Circuit, error) {
	pinCount := raw.Chip.PinCount
	if pinCount == 0 {
		pinCount = len(raw.Chip.PinDefinitions)
	}
	if pinCount <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidNetlist, "chip has no pins")
	}
	if raw.Chip.Model == "" {
		return nil, errors.New(errors.ErrCodeInvalidNetlist, "chip model is required")
	}

	chip := Chip{Name: raw.Chip.Model, PinCount: pinCount}
	if raw.Chip.Params != nil {
		if err := applyChipParams(&chip, raw.Chip.Params); err != nil {
			return nil, err
		}
	}

	c := &Circuit{
		Name: raw.Name,
		Chip: chip,
	}

	seen := make(map[string]bool, len(raw.Components))
	for _, rc := range raw.Components {
		if rc.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidNetlist, "component with empty id")
		}
		if seen[rc.ID] {
			return nil, errors.New(errors.ErrCodeInvalidNetlist, "duplicate component id %q", rc.ID)
		}
		seen[rc.ID] = true

		typ, err := ParseType(rc.Type)
		if err != nil {
			return nil, err
		}

		comp := Component{ID: rc.ID, Type: typ, Label: rc.Label}
		if comp.Label == "" {
			comp.Label = rc.Value
		}
		if rc.Params != nil {
			comp.Params, err = buildParams(rc.ID, rc.Params)
			if err != nil {
				return nil, err
			}
		}
		c.Components = append(c.Components, comp)
	}

	nets, err := flattenNets(raw.Nets, c.Chip.PinCount, seen)
	if err != nil {
		return nil, err
	}
	c.Nets = nets
	return c, nil
}

func applyChipParams(chip *Chip, rp *rawChipParams) error {
	if rp.Spacing != nil {
		if *rp.Spacing <= 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "chip: spacing must be positive")
		}
		chip.PinSpacing = *rp.Spacing
	}
	if rp.Pad != nil {
		if *rp.Pad <= 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "chip: pad must be positive")
		}
		chip.PinPad = *rp.Pad
	}
	if rp.LeadLen != nil {
		if *rp.LeadLen <= 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "chip: leadlen must be positive")
		}
		chip.LeadLength = *rp.LeadLen
	}
	return nil
}

func buildParams(id string, rp *rawParams) (Params, error) {
	var p Params
	if rp.Length != nil {
		if *rp.Length <= 0 {
			return p, errors.New(errors.ErrCodeInvalidGeometry, "component %q: length must be positive", id)
		}
		p.Length = *rp.Length
	}
	if rp.Width != nil {
		if *rp.Width <= 0 {
			return p, errors.New(errors.ErrCodeInvalidGeometry, "component %q: width must be positive", id)
		}
		p.Width = *rp.Width
	}
	if rp.Radius != nil {
		if *rp.Radius <= 0 {
			return p, errors.New(errors.ErrCodeInvalidGeometry, "component %q: radius must be positive", id)
		}
		p.Radius = *rp.Radius
	}
	if rp.Loops != nil {
		if *rp.Loops < 0 {
			return p, errors.New(errors.ErrCodeInvalidGeometry, "component %q: loops must not be negative", id)
		}
		p.Loops = *rp.Loops
	}
	if rp.Rotation != nil {
		p.Rotation = *rp.Rotation
		p.HasRotation = true
	}
	return p, nil
}

// flattenNets expands each net's endpoint list into chip-pin/component
// pairs. A net touching two chip pins and one component yields two pairs.
func flattenNets(raw []rawNet, pinCount int, components map[string]bool) ([]Net, error) {
	var nets []Net
	for _, rn := range raw {
		var pins []int
		var comps []string
		for _, conn := range rn.Connections {
			switch conn.Type {
			case connChipPin:
				if conn.PinNumber < 1 || conn.PinNumber > pinCount {
					return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q references chip pin %d outside 1..%d", rn.NetID, conn.PinNumber, pinCount)
				}
				pins = append(pins, conn.PinNumber)
			case connComponentPort:
				id := conn.ComponentID
				if id == "" {
					id = conn.Component
				}
				if id == "" {
					return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q has a component endpoint without an id", rn.NetID)
				}
				if !components[id] {
					return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q references unknown component %q", rn.NetID, id)
				}
				comps = append(comps, id)
			default:
				return nil, errors.New(errors.ErrCodeInvalidNetlist, "net %q has endpoint of unknown type %q", rn.NetID, conn.Type)
			}
		}
		sort.Ints(pins)
		for _, id := range comps {
			for _, pin := range pins {
				nets = append(nets, Net{ChipPin: pin, ComponentID: id, Name: rn.NetID})
			}
		}
	}
	return nets, nil
}

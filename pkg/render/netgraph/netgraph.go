// Package netgraph renders a circuit's connectivity as a Graphviz
// diagram: the chip in the middle, components around it, one edge per
// chip-pin connection. This view checks wiring rather than geometry and
// complements the schematic renderer.
package netgraph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
)

// ToDOT converts a circuit to Graphviz DOT format. The result can be
// rendered with [RenderSVG].
func ToDOT(c *circuit.Circuit) string {
	var buf bytes.Buffer
	buf.WriteString("graph circuit {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	chipLabel := fmt.Sprintf("%s\\n%d pins", sanitize(c.Chip.Name), c.Chip.PinCount)
	fmt.Fprintf(&buf, "  chip [label=\"%s\", shape=box, fillcolor=lightgrey, fontsize=14];\n", chipLabel)

	for _, comp := range c.Components {
		label := sanitize(comp.ID)
		if comp.Label != "" {
			label += "\\n" + sanitize(comp.Label)
		}
		fmt.Fprintf(&buf, "  %q [label=\"%s\", fillcolor=%s];\n", comp.ID, label, fillFor(comp.Type))
	}

	buf.WriteString("\n")
	for _, n := range c.Nets {
		fmt.Fprintf(&buf, "  chip -- %q [label=\"pin %d\", fontsize=10];\n", n.ComponentID, n.ChipPin)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fillFor(t circuit.Type) string {
	switch t {
	case circuit.TypeResistor:
		return "lightyellow"
	case circuit.TypeCapacitor:
		return "lightblue"
	case circuit.TypeLED, circuit.TypeDiode:
		return "mistyrose"
	case circuit.TypeVoltageSource:
		return "palegreen"
	default:
		return "white"
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to render graph")
	}
	return buf.Bytes(), nil
}

// sanitize keeps untrusted netlist strings from breaking out of DOT
// label quoting.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/render/netgraph"
)

// graphCommand creates the graph command for net connectivity diagrams.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		asDOT  bool
	)

	cmd := &cobra.Command{
		Use:   "graph [netlist.json]",
		Short: "Render the net connectivity graph of a circuit",
		Long: `Render the net connectivity graph of a circuit.

The graph command draws the netlist as a node-link diagram: the chip in
the center with one edge per net to each connected component. The layout
is computed by Graphviz. Use --dot to emit the DOT source instead of SVG.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), input, output, asDOT)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.svg)")
	cmd.Flags().BoolVar(&asDOT, "dot", false, "emit DOT source instead of SVG")

	return cmd
}

// runGraph parses the netlist and renders the connectivity diagram.
func (c *CLI) runGraph(ctx context.Context, input, output string, asDOT bool) error {
	circ, err := circuit.ParseNetlistFile(input)
	if err != nil {
		return err
	}

	dot := netgraph.ToDOT(circ)
	if asDOT {
		out := outputPath(output, input, ".graph.dot")
		if err := os.WriteFile(out, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printSuccess("Graph exported")
		printFile(out)
		return nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering net graph...")
	spinner.Start()
	svg, err := netgraph.RenderSVG(ctx, dot)
	if err != nil {
		spinner.StopWithError("Graph render failed")
		return err
	}
	spinner.Stop()

	out := outputPath(output, input, ".graph.svg")
	if err := os.WriteFile(out, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	printSuccess("Graph rendered")
	printFile(out)
	printStats(len(circ.Components), len(circ.Nets), false)
	return nil
}

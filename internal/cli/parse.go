package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/pipeline"
)

// parseCommand creates the parse command for netlist validation.
func (c *CLI) parseCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "parse [netlist.json]",
		Short: "Parse and validate a circuit netlist",
		Long: `Parse and validate a circuit netlist.

The parse command decodes the netlist, validates every component and net,
and prints a summary of the circuit. With --output the normalized circuit
model is written as JSON, which is useful for inspecting derived values
like chip dimensions and component sizes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			return c.runParse(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the normalized circuit model to a file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runParse validates the netlist and prints the circuit summary.
func (c *CLI) runParse(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.NetlistPath = input
	opts.Logger = c.Logger

	circ, _, cacheHit, err := runner.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}

	printSuccess("Netlist valid")
	printDetail("chip: %s (%d pins)", circ.Chip.Name, circ.Chip.PinCount)
	for _, line := range typeBreakdown(circ) {
		printDetail("%s", line)
	}
	printStats(len(circ.Components), len(circ.Nets), cacheHit)

	if output != "" {
		data, err := json.MarshalIndent(circ, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
	}

	printNewline()
	printNextStep("Layout", "circuitlay layout "+input)
	return nil
}

// typeBreakdown returns one formatted line per component type, sorted by name.
func typeBreakdown(circ *circuit.Circuit) []string {
	counts := make(map[string]int)
	for _, comp := range circ.Components {
		counts[string(comp.Type)]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	lines := make([]string, 0, len(types))
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("%d × %s", counts[t], t))
	}
	return lines
}

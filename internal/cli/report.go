package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/pipeline"
	"github.com/schemalab/circuitlay/pkg/report"
)

// reportCommand creates the report command for placement statistics.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		output  string
		asJSON  bool
		noCache bool
	)
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "report [netlist.json]",
		Short: "Summarize placement quality for a circuit layout",
		Long: `Summarize placement quality for a circuit layout.

The report command computes the layout and prints a summary: canvas
density, how many components kept their preferred radial position, and
how components distribute by side, distance, and type. With --json the
raw statistics are emitted instead of the text summary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			return c.runReport(cmd.Context(), input, opts, output, asJSON, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw statistics as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	addLayoutFlags(cmd, &opts)

	return cmd
}

// runReport computes the layout and emits the placement report.
func (c *CLI) runReport(ctx context.Context, input string, opts pipeline.Options, output string, asJSON, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.NetlistPath = input
	opts.Logger = c.Logger

	circ, hash, _, err := runner.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	res, _, err := runner.LayoutWithCacheInfo(ctx, circ, hash, opts)
	if err != nil {
		return err
	}

	var body []byte
	if asJSON {
		body, err = json.MarshalIndent(report.Compute(res), "", "  ")
		if err != nil {
			return err
		}
	} else {
		body = []byte(report.Summary(res, circ.Name))
	}

	if output == "" {
		fmt.Println(string(body))
		return nil
	}
	if err := os.WriteFile(output, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Report written")
	printFile(output)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
	"github.com/schemalab/circuitlay/pkg/pipeline"
)

// layoutCommand creates the layout command for computing component placements.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "layout [netlist.json]",
		Short: "Compute a component layout from a circuit netlist",
		Long: `Compute a component layout from a circuit netlist.

The layout command places every component radially outward from its first
connected chip pin, then resolves overlaps with a spiral search until the
arrangement is collision free or the attempt budget runs out. The output
is a layout.json document that can be rendered with 'circuitlay render'.

When no netlist is given, an interactive picker lists the JSON files in
the current directory.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the canvas and engine tuning flags shared by
// the layout, render, annotate, and report commands.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.CanvasWidth, "canvas-width", opts.CanvasWidth, "canvas width in schematic units")
	cmd.Flags().Float64Var(&opts.CanvasHeight, "canvas-height", opts.CanvasHeight, "canvas height in schematic units")
	cmd.Flags().Float64Var(&opts.Clearance, "clearance", opts.Clearance, "pin-to-component clearance")
	cmd.Flags().Float64Var(&opts.Margin, "margin", opts.Margin, "required gap between components")
	cmd.Flags().Float64Var(&opts.ChipMargin, "chip-margin", opts.ChipMargin, "required gap between components and the chip")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", opts.MaxAttempts, "resolution attempt budget")
	cmd.Flags().Float64Var(&opts.SpiralStep, "spiral-step", opts.SpiralStep, "spiral search ring radius increment")
	cmd.Flags().IntVar(&opts.SpiralSamples, "spiral-samples", opts.SpiralSamples, "angular samples per spiral ring")
	cmd.Flags().Float64Var(&opts.MaxRadiusFactor, "max-radius-factor", opts.MaxRadiusFactor, "spiral search bound as a multiple of the canvas dimension")
}

// runLayout parses the netlist, computes the layout, and writes the document.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.NetlistPath = input
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	doc, err := layout.UnmarshalDocument(result.Artifacts[pipeline.FormatJSON])
	if err != nil {
		return err
	}
	out := outputPath(output, input, ".layout.json")
	if err := doc.WriteFile(out); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(result.Stats.ComponentCount, result.Stats.NetCount, result.CacheInfo.LayoutHit)
	printLayoutOutcome(result.Layout.Converged(), result.Layout.Attempts, result.Layout.Failed)
	if err := result.Layout.Layout.UnconnectedErr(); err != nil {
		printWarning("%s", errors.UserMessage(err))
	}
	printNewline()
	printNextStep("Render", "circuitlay render "+input)

	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/pipeline"
)

// renderCommand creates the render command for generating schematic images.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "render [netlist.json]",
		Short: "Render a circuit layout to SVG, PNG, or JSON",
		Long: `Render a circuit layout to SVG, PNG, or JSON.

The render command runs the full pipeline: it parses the netlist, computes
the layout, and draws the chip and components with their symbols. Multiple
formats can be produced in one run with a comma-separated --format list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "pixels per schematic unit")
	cmd.Flags().BoolVar(&opts.Labels, "labels", opts.Labels, "draw component labels")
	cmd.Flags().BoolVar(&opts.BBoxes, "bboxes", opts.BBoxes, "draw bounding box overlays")
	cmd.Flags().IntVar(&opts.PNGMaxWidth, "png-max-width", opts.PNGMaxWidth, "maximum PNG width in pixels")

	addLayoutFlags(cmd, &opts)

	return cmd
}

// runRender executes the pipeline and writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.NetlistPath = input
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering "+input+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Render complete")
	for _, format := range opts.Formats {
		path := renderOutputPath(output, input, format, len(opts.Formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.ComponentCount, result.Stats.NetCount, result.CacheInfo.RenderHit)
	printLayoutOutcome(result.Layout.Converged(), result.Layout.Attempts, result.Layout.Failed)

	return nil
}

// renderOutputPath derives the output path for a format. With multiple
// formats the output acts as a base path and each file gets its format
// extension. The json artifact uses .layout.json so a derived path never
// overwrites the input netlist.
func renderOutputPath(output, input, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
	}
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}

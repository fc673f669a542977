package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/annotate"
	"github.com/schemalab/circuitlay/pkg/pipeline"
)

// annotateCommand creates the annotate command for YOLO dataset export.
func (c *CLI) annotateCommand() *cobra.Command {
	var (
		output   string
		withInfo bool
		noCache  bool
	)
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "annotate [netlist.json]",
		Short: "Export YOLO training annotations for a circuit layout",
		Long: `Export YOLO training annotations for a circuit layout.

The annotate command computes the layout and writes normalized bounding
box annotations in YOLO format, one object per line, together with the
class list. With --info it also writes a dataset summary with class
distribution and bounding box size statistics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args)
			if err != nil {
				return err
			}
			return c.runAnnotate(cmd.Context(), input, opts, output, withInfo, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "base output path (default: input without extension)")
	cmd.Flags().BoolVar(&withInfo, "info", false, "also write a dataset info JSON file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	addLayoutFlags(cmd, &opts)

	return cmd
}

// runAnnotate computes the layout and writes annotation, classes, and
// optional dataset info files.
func (c *CLI) runAnnotate(ctx context.Context, input string, opts pipeline.Options, output string, withInfo, noCache bool) error {
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
	res, cacheHit, err := runner.LayoutWithCacheInfo(ctx, circ, hash, opts)
	if err != nil {
		return err
	}

	annotations, err := annotate.Export(res.Layout)
	if err != nil {
		return err
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
	}
	annotationPath := base + ".txt"
	classesPath := base + ".classes.txt"
	if err := annotations.WriteFiles(annotationPath, classesPath); err != nil {
		return err
	}

	printSuccess("Annotations exported")
	printFile(annotationPath)
	printFile(classesPath)

	if withInfo {
		infoPath := base + ".dataset.json"
		data, err := json.MarshalIndent(annotations.Info(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(infoPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", infoPath, err)
		}
		printFile(infoPath)
	}

	printStats(len(circ.Components), len(circ.Nets), cacheHit)
	printLayoutOutcome(res.Converged(), res.Attempts, res.Failed)

	return nil
}

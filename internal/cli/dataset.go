package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/pkg/cache"
	"github.com/schemalab/circuitlay/pkg/layout"
	"github.com/schemalab/circuitlay/pkg/pipeline"
	"github.com/schemalab/circuitlay/pkg/store"
)

// datasetCommand creates the dataset command for accumulating layouts in
// MongoDB for detection-training datasets.
func (c *CLI) datasetCommand() *cobra.Command {
	var (
		mongoURL string
		mongoDB  string
	)

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Accumulate and browse layout documents in MongoDB",
	}

	cmd.PersistentFlags().StringVar(&mongoURL, "mongo", "mongodb://localhost:27017", "mongodb URL")
	cmd.PersistentFlags().StringVar(&mongoDB, "mongo-db", "", "mongodb database name")

	cmd.AddCommand(c.datasetPushCommand(&mongoURL, &mongoDB))
	cmd.AddCommand(c.datasetListCommand(&mongoURL, &mongoDB))
	cmd.AddCommand(c.datasetGetCommand(&mongoURL, &mongoDB))

	return cmd
}

// datasetPushCommand creates the "dataset push" subcommand.
func (c *CLI) datasetPushCommand(mongoURL, mongoDB *string) *cobra.Command {
	var name string
	opts := c.newPipelineOptions()

	cmd := &cobra.Command{
		Use:   "push [netlist.json...]",
		Short: "Compute layouts and persist their documents",
		Long: `Compute layouts and persist their documents.

Each netlist is run through the pipeline and the resulting layout document
is stored. The dataset name scopes the pipeline cache so separate datasets
never share cached layouts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDatasetPush(cmd.Context(), args, opts, *mongoURL, *mongoDB, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "default", "dataset name")
	addLayoutFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runDatasetPush(ctx context.Context, inputs []string, opts pipeline.Options, mongoURL, mongoDB, name string) error {
	layoutStore, err := store.NewLayoutStore(ctx, mongoURL, mongoDB)
	if err != nil {
		return err
	}
	defer layoutStore.Close(context.Background())

	fileCache, err := newCache(false)
	if err != nil {
		return err
	}
	keyer := cache.NewScopedKeyer(nil, "dataset:"+name+":")
	runner := pipeline.NewRunner(fileCache, keyer, c.Logger)
	defer runner.Close()

	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	pushed := 0
	for _, input := range inputs {
		runOpts := opts
		runOpts.NetlistPath = input

		result, err := runner.Execute(ctx, runOpts)
		if err != nil {
			printError("%s: %v", input, err)
			continue
		}
		doc, err := layout.UnmarshalDocument(result.Artifacts[pipeline.FormatJSON])
		if err != nil {
			printError("%s: %v", input, err)
			continue
		}
		if err := layoutStore.Save(ctx, doc); err != nil {
			printError("%s: %v", input, err)
			continue
		}
		printSuccess("%s", input)
		printDetail("run %s · %s", doc.RunID, doc.Status)
		pushed++
	}

	printNewline()
	printInfo("Pushed %d of %d layouts to dataset %q", pushed, len(inputs), name)
	if pushed < len(inputs) {
		return fmt.Errorf("%d of %d netlists failed", len(inputs)-pushed, len(inputs))
	}
	return nil
}

// datasetListCommand creates the "dataset list" subcommand.
func (c *CLI) datasetListCommand(mongoURL, mongoDB *string) *cobra.Command {
	var (
		circuitName string
		limit       int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored layout documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layoutStore, err := store.NewLayoutStore(ctx, *mongoURL, *mongoDB)
			if err != nil {
				return err
			}
			defer layoutStore.Close(context.Background())

			docs, err := layoutStore.List(ctx, circuitName, limit)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				printInfo("No layouts stored")
				return nil
			}
			for _, doc := range docs {
				fmt.Printf("%s  %-12s %-10s %s\n",
					doc.RunID, doc.CircuitName, doc.Status,
					doc.GeneratedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&circuitName, "circuit", "", "filter by circuit name")
	cmd.Flags().Int64Var(&limit, "limit", 20, "maximum number of documents")

	return cmd
}

// datasetGetCommand creates the "dataset get" subcommand.
func (c *CLI) datasetGetCommand(mongoURL, mongoDB *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <run-id>",
		Short: "Fetch a stored layout document by run ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layoutStore, err := store.NewLayoutStore(ctx, *mongoURL, *mongoDB)
			if err != nil {
				return err
			}
			defer layoutStore.Close(context.Background())

			doc, err := layoutStore.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if output == "" {
				data, err := doc.Marshal()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			if err := doc.WriteFile(output); err != nil {
				return err
			}
			printSuccess("Layout fetched")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to a file instead of stdout")

	return cmd
}

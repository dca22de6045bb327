package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"contentpipe/internal/catalog"
	"contentpipe/internal/output"
)

func newBatchCommand(app *App) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "batch <catalog>",
		Short: "Run the product content workflow for every product of a catalog",
		Long: `Run the product content workflow for each product of a CSV or YAML
catalog, in order. Each product's pages and run summary are written to its
own directory under the output directory, named after the product.

The batch stops on the first product that does not pass.

Example:
  contentpipe batch products.csv --output-dir output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" && app.Config != nil {
				outputDir = app.Config.Output.Dir
			}

			c, err := catalog.ReadFromFile(args[0])
			if err != nil {
				app.Printer.Text(fmt.Sprintf("Error: %v", err))
				return NewExitError(ExitRunError)
			}

			names := c.Names()
			results := make([]output.BatchResult, 0, len(c.Entries))
			batchStart := time.Now()
			exitCode := ExitOK

			app.Printer.BatchHeader(names)
			for i, entry := range c.Entries {
				app.Printer.BatchItem(i+1, len(c.Entries), entry.Name())

				start := time.Now()
				input := fmt.Sprintf("%s:%d", args[0], entry.Line)
				status, code := runOne(cmd.Context(), app, entry.Fields, input, filepath.Join(outputDir, entry.Slug()))
				results = append(results, output.BatchResult{
					Name:     entry.Name(),
					Status:   status,
					Duration: time.Since(start),
				})

				if code != ExitOK {
					exitCode = code
					break
				}
			}

			app.Printer.BatchSummary(results, names, time.Since(batchStart))
			if exitCode != ExitOK {
				return NewExitError(exitCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "parent directory for per-product output (default from config)")
	return cmd
}

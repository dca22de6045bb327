package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"contentpipe/internal/content"
	"contentpipe/internal/output"
	"contentpipe/internal/pipeline"
)

// DefaultInput is the product file used when --input is not given.
const DefaultInput = "examples/glowboost.json"

func newGenerateCommand(app *App) *cobra.Command {
	var (
		inputPath string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the product content workflow",
		Long: `Run the product content workflow for a product description:
  1. extract-product       - Parse and validate the product data
  2. generate-questions    - Categorized customer questions (optional)
  3. create-competitor     - Fictional competitor product (optional)
  4. generate-faq          - FAQ page
  5. generate-product-page - Product page
  6. generate-comparison   - Comparison page
  7. validate-quality      - Quality report

The input is a JSON or YAML mapping of product fields. The pages are written
to the output directory together with a run summary.

Exit codes: 0 passed, 1 run error, 2 quality report FAILED.

Example:
  contentpipe generate --input examples/glowboost.json --output-dir output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" && app.Config != nil {
				outputDir = app.Config.Output.Dir
			}
			return runGenerate(cmd, app, inputPath, outputDir)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", DefaultInput, "product description file (JSON or YAML)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for generated pages (default from config)")
	return cmd
}

func runGenerate(cmd *cobra.Command, app *App, inputPath, outputDir string) error {
	raw, err := readProduct(inputPath)
	if err != nil {
		app.Printer.Text(fmt.Sprintf("Error: %v", err))
		return NewExitError(ExitRunError)
	}

	app.Printer.RunHeader(app.Workflow.Name, inputPath, stepNames(app.Workflow))
	if _, code := runOne(cmd.Context(), app, raw, inputPath, outputDir); code != ExitOK {
		return NewExitError(code)
	}
	return nil
}

// statusError is the batch status of a product whose run did not reach its
// report.
const statusError = "ERROR"

// runOne runs the workflow on raw, writes the run summary and, when the run
// reached its report, the pages into dir, then prints the outcome. It
// returns the report status, or statusError, and the exit code.
func runOne(ctx context.Context, app *App, raw any, input, dir string) (string, int) {
	log := app.logger().Named("cli")
	wf := app.Workflow

	start := time.Now()
	outcome, runErr := app.Runner.Run(ctx, wf, raw)
	duration := time.Since(start)

	writer := app.writer(dir)
	summaryPath, err := writer.WriteSummary(output.NewRunSummary(wf.Name, input, outcome, runErr))
	if err != nil {
		log.Warn("could not write run summary", zap.Error(err))
	}

	if runErr != nil {
		runID := ""
		if outcome != nil {
			runID = outcome.RunID
		}
		app.Printer.RunFailed(runID, runErr, duration)
		return statusError, ExitRunError
	}

	pages, err := content.PagesFrom(outcome.Results)
	if err != nil {
		app.Printer.RunFailed(outcome.RunID, err, duration)
		return statusError, ExitRunError
	}
	files, err := writer.WritePages(pages)
	if err != nil {
		app.Printer.RunFailed(outcome.RunID, err, duration)
		return statusError, ExitRunError
	}
	if summaryPath != "" {
		files = append(files, summaryPath)
	}

	app.Printer.RunComplete(outcome, files, duration)
	log.Info("run finished",
		zap.String("run_id", outcome.RunID),
		zap.String("status", outcome.Report.Status),
		zap.Duration("duration", duration),
	)

	if !outcome.Report.Passed() {
		return outcome.Report.Status, ExitReportError
	}
	return outcome.Report.Status, ExitOK
}

func stepNames(wf pipeline.Workflow) []string {
	names := make([]string, 0, len(wf.Steps)+1)
	for _, def := range wf.Steps {
		names = append(names, def.Name())
	}
	return append(names, wf.Report.Name())
}

// readProduct loads the raw product mapping. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func readProduct(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return raw, nil
}

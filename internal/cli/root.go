// Package cli provides the command-line interface for contentpipe.
//
// Commands are built with Cobra and share an [App] holding the injected
// dependencies, so every command can be exercised in tests with doubles.
//
// Key types:
//   - [App] is the dependency container shared by all commands
//   - [ExitError] carries a non-zero exit code out of a command
//   - [ExecuteResult] is the outcome of [Run]
//
// Commands:
//   - generate runs the product-content workflow and writes the pages
//   - batch runs the workflow for every product of a catalog
//   - status shows the summary of the last run
//   - raw sends one prompt through the backend client
//   - extract pulls a JSON object out of free text
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"contentpipe/internal/config"
	"contentpipe/internal/content"
	"contentpipe/internal/output"
	"contentpipe/internal/pipeline"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitRunError    = 1
	ExitReportError = 2
)

// Runner executes a workflow. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, wf pipeline.Workflow, raw any) (*pipeline.Outcome, error)
}

// Prompter sends prompts to the generative backend. *backend.Client
// satisfies it.
type Prompter interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string) (map[string]any, error)
}

// ArtifactWriter persists a run's pages and summary. *output.Writer
// satisfies it.
type ArtifactWriter interface {
	WritePages(pages content.Pages) ([]string, error)
	WriteSummary(sum output.RunSummary) (string, error)
}

// App holds the dependencies shared by all commands.
type App struct {
	Config   *config.Config
	Runner   Runner
	Workflow pipeline.Workflow
	Client   Prompter
	Printer  *output.Printer
	Logger   *zap.Logger

	// NewWriter opens an ArtifactWriter for an output directory. When nil,
	// [output.NewWriter] is used with the configured summary file name.
	NewWriter func(dir string) ArtifactWriter
}

func (a *App) writer(dir string) ArtifactWriter {
	if a.NewWriter != nil {
		return a.NewWriter(dir)
	}
	w := output.NewWriter(dir)
	if a.Config != nil {
		w.SetSummaryFile(a.Config.Output.SummaryFile)
	}
	return w
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentpipe",
		Short: "Generate product marketing pages with a generative backend",
		Long: `contentpipe turns a structured product description into an FAQ page,
a product page and a comparison page against a competitor product.

Each run passes the product through a fixed sequence of steps, writes the
three pages as JSON and records a run summary with the quality report and
the full event log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCommand(app),
		newBatchCommand(app),
		newStatusCommand(app),
		newRawCommand(app),
		newExtractCommand(app),
	)
	return rootCmd
}

// annotationOffline marks commands that need no backend, configuration or
// telemetry.
const annotationOffline = "contentpipe/offline"

// IsOffline reports whether cmd runs without the application graph.
func IsOffline(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationOffline] == "true"
}

// ExecuteResult is the outcome of running the command tree.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// Run executes rootCmd with args and maps the result to an exit code.
// Errors that do not wrap an [ExitError] map to [ExitRunError].
func Run(ctx context.Context, rootCmd *cobra.Command, args []string) ExecuteResult {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExecuteResult{ExitCode: ExitOK}
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return ExecuteResult{ExitCode: exitErr.Code, Err: err}
	}
	return ExecuteResult{ExitCode: ExitRunError, Err: err}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentpipe/internal/output"
)

func newStatusCommand(app *App) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the summary of the last run",
		Long: `Show the run summary left in the output directory by the last generate
run: report status, step statuses, errors and warnings.

The exit code mirrors the run: 0 passed, 1 run error, 2 quality report FAILED.
CONTENTPIPE_SUMMARY_PATH points at a summary file directly.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if app.Config != nil {
				if outputDir == "" {
					outputDir = app.Config.Output.Dir
				}
				file = app.Config.Output.SummaryFile
			}

			sum, err := output.ReadSummary(output.ResolveSummaryPath(outputDir, file))
			if err != nil {
				app.Printer.Text(fmt.Sprintf("Error: %v", err))
				return NewExitError(ExitRunError)
			}

			app.Printer.RunStatus(sum)
			switch {
			case sum.Error != "" || sum.Report == nil:
				return NewExitError(ExitRunError)
			case !sum.Report.Passed():
				return NewExitError(ExitReportError)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory holding the run summary (default from config)")
	return cmd
}

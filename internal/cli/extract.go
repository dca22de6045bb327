package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"contentpipe/internal/backend"
)

func newExtractCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract a JSON object from free text",
		Long: `Run the structured-output extraction over a file, or stdin when no file
is given, and print the recovered JSON object.

Fenced code blocks, bare JSON, and objects embedded in prose are recognized.

Example:
  contentpipe extract completion.txt
  pbpaste | contentpipe extract`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				app.Printer.Text(fmt.Sprintf("Error: failed to read input: %v", err))
				return NewExitError(ExitRunError)
			}

			payload, err := backend.Extract(string(data))
			if err != nil {
				app.Printer.Text(fmt.Sprintf("Error: %v", err))
				return NewExitError(ExitRunError)
			}
			return printJSON(cmd, payload)
		},
	}
}

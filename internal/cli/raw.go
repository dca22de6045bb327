package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRawCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "raw <prompt>",
		Short: "Run an arbitrary prompt",
		Long: `Run an arbitrary prompt through the configured backend, with the
same retry policy the workflow uses. Useful for testing a backend.

With --json the completion must contain a JSON object, which is extracted
and printed on its own.

Example:
  contentpipe raw "Describe vitamin C serums in one sentence"
  contentpipe raw --json "Return {\"ok\": true} as JSON"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			ctx := cmd.Context()

			if !asJSON {
				text, err := app.Client.Generate(ctx, prompt)
				if err != nil {
					app.Printer.Text(fmt.Sprintf("Error: %v", err))
					return NewExitError(ExitRunError)
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			payload, err := app.Client.GenerateStructured(ctx, prompt)
			if err != nil {
				app.Printer.Text(fmt.Sprintf("Error: %v", err))
				return NewExitError(ExitRunError)
			}
			return printJSON(cmd, payload)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "extract and print the JSON object from the completion")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodesettings/settings-sdk/internal/issue"
)

// newExplainCommand creates the `explain` command, which prints the help
// text shown for a failure kind with --verbose.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [kind]",
		Short: "Explain a failure kind",
		Long: `Explain a failure kind.

Without arguments, lists every kind a failure can report. With a kind,
prints the guidance for it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, entry := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s  %s\n", KeyStyle.Render(fmt.Sprintf("%-26s", entry.Name())), entry.Title())
				}
				return nil
			}

			entry, ok := issue.ByName(args[0])
			if !ok {
				return app.fail(issue.NewErrorContext().
					WithOperation("explain failure kind").
					WithResource(args[0]).
					WithSuggestion("Run 'explain' without arguments to list the known kinds").
					WithIssue(issue.InvalidInputId).
					Build(), ExitUsage)
			}

			rendered, err := entry.Render(string(app.cfg.UI.ColorScheme))
			if err != nil {
				return app.fail(err, ExitFailure)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

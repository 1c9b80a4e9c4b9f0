// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nodesettings/settings-sdk/internal/issue"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

// fail renders err on stderr and wraps it with the exit code for the process.
func (a *App) fail(err error, code ExitCode) error {
	renderFailure(a.stderr, err, a.cfg.UI.Verbose, string(a.cfg.UI.ColorScheme))
	a.logger.Debug("request failed", "kind", settings.KindOf(err), "exit", code)
	return &ExitError{Code: code, Err: err}
}

// failRequest classifies err: command-layer input errors exit with
// ExitUsage, everything the engine reports exits with ExitFailure.
func (a *App) failRequest(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return a.fail(err, ExitUsage)
	}
	return a.fail(err, ExitFailure)
}

// renderFailure writes the diagnostic for err. Validation failures list
// every violation; verbose mode adds the error chain and catalog help.
func renderFailure(w io.Writer, err error, verbose bool, colorScheme string) {
	var (
		ae      *issue.ActionableError
		valErr  *settings.ValidationError
		catalog *issue.Issue
	)

	switch {
	case errors.As(err, &ae):
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(verbose))
		catalog = ae.Issue()
	case errors.As(err, &valErr):
		kind := settings.KindOf(err)
		headline := "validation failed"
		if valErr.Version != "" {
			headline = "validation against " + KeyStyle.Render(string(valErr.Version)) + " failed"
		}
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error ["+string(kind)+"]:"), headline)
		for _, fe := range valErr.FieldErrors {
			fmt.Fprintln(w, fieldErrorStyle.Render("- "+fieldErrorLine(fe)))
		}
		catalog = issue.ForKind(kind)
	default:
		kind := settings.KindOf(err)
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error ["+string(kind)+"]:"), err.Error())
		catalog = issue.ForKind(kind)
	}

	if !verbose {
		fmt.Fprintln(w, hintStyle.Render("Run with --verbose for more details."))
		return
	}
	if ae == nil {
		writeChain(w, err)
	}
	if catalog == nil {
		return
	}
	rendered, renderErr := catalog.Render(colorScheme)
	if renderErr != nil {
		fmt.Fprintln(w, WarningStyle.Render("Warning: ")+"failed to render help: "+renderErr.Error())
		return
	}
	fmt.Fprint(w, rendered)
}

func fieldErrorLine(fe settings.FieldError) string {
	if fe.Path == "" {
		return fe.Reason
	}
	return KeyStyle.Render(fe.Path) + ": " + fe.Reason
}

// writeChain prints each wrapped cause of err on its own line.
func writeChain(w io.Writer, err error) {
	var sb strings.Builder
	sb.WriteString("\nError chain:")
	depth := 1
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		fmt.Fprintf(&sb, "\n  %d. %s", depth, cur.Error())
		depth++
	}
	fmt.Fprintln(w, sb.String())
}

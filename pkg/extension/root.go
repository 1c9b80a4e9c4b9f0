// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/nodesettings/settings-sdk/pkg/settings"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	name := app.ext.Name()
	rootCmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Settings extension %q", name),
		Long: TitleStyle.Render(name) + SubtitleStyle.Render(" - a versioned settings extension") + `

This program validates, generates and migrates the settings it owns.
The host drives it through the proto1 commands; every result is
printed to stdout and every failure to stderr.

` + SubtitleStyle.Render("Examples:") + `
  ` + name + ` proto1 versions
  ` + name + ` proto1 validate --setting-version v1 --value '{...}'
  ` + name + ` proto1 migrate --value '{...}' --from-version v1 --target-version v2`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/settings-sdk/config.cue)")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "diagnostic level: debug, info, warn or error")
	pf.StringVarP(&app.flags.output, "output", "o", "", "result encoding: json or toml")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "print the error chain and help text on failure")

	rootCmd.AddCommand(newProto1Command(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))

	return rootCmd
}

// Execute runs ext as the main program and exits the process. Arguments are
// taken from os.Args.
func Execute(ctx context.Context, ext *settings.Extension) {
	app, err := NewApp(ext, Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(ExitFailure))
	}

	os.Exit(int(ExitCodeOf(execute(ctx, NewRootCommand(app)))))
}

// execute runs root under fang, which adds styled help and handles
// interrupts. fang overrides the root command's Version, so the version is
// passed as an option.
func execute(ctx context.Context, root *cobra.Command) error {
	return fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(renderUnhandled),
	)
}

// renderUnhandled prints errors no command rendered, such as unknown flags.
// An *ExitError was already written to stderr by App.fail.
func renderUnhandled(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Run executes the command tree with args (without the program name) and
// returns the error of the failed command, if any. Diagnostics are written to
// deps.Stderr before Run returns.
func Run(ctx context.Context, ext *settings.Extension, args []string, deps Dependencies) error {
	app, err := NewApp(ext, deps)
	if err != nil {
		return err
	}

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err = rootCmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Flag and argument errors are raised by cobra before any handler ran.
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		return &ExitError{Code: ExitUsage, Err: err}
	}
	return err
}

// TryRunWithArgs runs ext with a full argv (program name first) and returns
// what the command printed to stdout. Diagnostics are discarded; the returned
// error carries the failure.
func TryRunWithArgs(ext *settings.Extension, argv ...string) (string, error) {
	if len(argv) > 0 {
		argv = argv[1:]
	}

	var stdout bytes.Buffer
	err := Run(context.Background(), ext, argv, Dependencies{Stdout: &stdout, Stderr: io.Discard})
	if err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodesettings/settings-sdk/internal/config"
	"github.com/nodesettings/settings-sdk/internal/issue"
)

// newConfigCommand creates the `config` command tree. These commands must
// work while the configuration file is broken, so they skip the root's
// configuration loading and load it themselves where needed.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the extension host configuration",
		Args:  cobra.NoArgs,
		Long: `Manage the extension host configuration.

Configuration is stored in:
  - Linux: ~/.config/settings-sdk/config.cue
  - macOS: ~/Library/Application Support/settings-sdk/config.cue
  - Windows: %APPDATA%\settings-sdk\config.cue

Set ` + config.ConfigDirEnv + ` to use another directory. Every key can be
overridden with an environment variable, for example
` + config.EnvPrefix + `_OUTPUT_FORMAT=toml.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.cfg.UI.Verbose = app.flags.verbose
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.flags.configPath})
			if err != nil {
				return app.fail(err, ExitFailure)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	var dir string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(dir, force)
			if errors.Is(err, config.ErrConfigExists) {
				return app.fail(issue.NewErrorContext().
					WithOperation("create configuration").
					WithResource(path).
					WithSuggestion("Use --force to overwrite it").
					Wrap(err).
					BuildError(), ExitUsage)
			}
			if err != nil {
				return app.fail(err, ExitFailure)
			}
			fmt.Fprintln(app.stderr, SuccessStyle.Render("Created ")+KeyStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().StringVar(&dir, "dir", "", "directory to create config.cue in (default is the platform config directory)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, path, err := config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: app.flags.configPath})
	if err != nil {
		return app.fail(err, ExitUsage)
	}

	source := SubtitleStyle.Render("(using defaults)")
	if path != "" {
		source = KeyStyle.Render(path)
	}
	fmt.Fprintln(app.stderr, TitleStyle.Render("Current Configuration")+" "+source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

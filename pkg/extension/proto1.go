// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"github.com/spf13/cobra"

	"github.com/nodesettings/settings-sdk/internal/issue"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

type (
	// validateResult is printed by a successful validate.
	validateResult struct {
		Valid bool `json:"valid"`
	}

	// versionsResult is printed by versions.
	versionsResult struct {
		Extension   string             `json:"extension"`
		Versions    []settings.Version `json:"versions"`
		FieldPolicy string             `json:"field_policy"`
	}
)

// newProto1Command creates the `proto1` command tree, the first version of
// the protocol between the host and a settings extension.
func newProto1Command(app *App) *cobra.Command {
	protoCmd := &cobra.Command{
		Use:   "proto1",
		Short: "Settings extension protocol, version 1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	protoCmd.AddCommand(newSetCommand(app))
	protoCmd.AddCommand(newGenerateCommand(app))
	protoCmd.AddCommand(newValidateCommand(app))
	protoCmd.AddCommand(newMigrateCommand(app))
	protoCmd.AddCommand(newFloodMigrateCommand(app))
	protoCmd.AddCommand(newVersionsCommand(app))

	return protoCmd
}

func newSetCommand(app *App) *cobra.Command {
	var version, value, current string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Validate a value and print it back when it is accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := settings.SetRequest{Version: settings.Version(version)}
			var err error
			if req.Value, err = requireValue("value", value); err != nil {
				return app.failRequest(err)
			}
			if req.Current, err = parseValue("current-value", current); err != nil {
				return app.failRequest(err)
			}

			accepted, err := app.engine.Set(req)
			if err != nil {
				return app.failRequest(err)
			}
			return app.print(accepted)
		},
	}

	cmd.Flags().StringVar(&version, "setting-version", "", "version of the value")
	cmd.Flags().StringVar(&value, "value", "", "the value to set (JSON object)")
	cmd.Flags().StringVar(&current, "current-value", "", "the value being replaced (JSON object)")
	_ = cmd.MarkFlagRequired("setting-version")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newGenerateCommand(app *App) *cobra.Command {
	var version, partial, required string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a value from defaults, a partial value and required settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := settings.GenerateRequest{Version: settings.Version(version)}
			var err error
			if req.ExistingPartial, err = parseValue("existing-partial", partial); err != nil {
				return app.failRequest(err)
			}
			if req.RequiredSettings, err = parseExternals("required-settings", required); err != nil {
				return app.failRequest(err)
			}

			result, err := app.engine.Generate(req)
			if err != nil {
				return app.failRequest(err)
			}
			return app.print(result)
		},
	}

	cmd.Flags().StringVar(&version, "setting-version", "", "version to generate")
	cmd.Flags().StringVar(&partial, "existing-partial", "", "previously generated partial value (JSON object)")
	cmd.Flags().StringVar(&required, "required-settings", "", "settings of other extensions, keyed by dotted name (JSON object)")
	_ = cmd.MarkFlagRequired("setting-version")
	return cmd
}

func newValidateCommand(app *App) *cobra.Command {
	var version, value, required string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report every way a value violates its version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := settings.ValidateRequest{Version: settings.Version(version)}
			var err error
			if req.Value, err = requireValue("value", value); err != nil {
				return app.failRequest(err)
			}
			if req.RequiredSettings, err = parseExternals("required-settings", required); err != nil {
				return app.failRequest(err)
			}

			if err := app.engine.Validate(req); err != nil {
				return app.failRequest(err)
			}
			return app.print(validateResult{Valid: true})
		},
	}

	cmd.Flags().StringVar(&version, "setting-version", "", "version to validate against")
	cmd.Flags().StringVar(&value, "value", "", "the value to validate (JSON object)")
	cmd.Flags().StringVar(&required, "required-settings", "", "settings of other extensions, keyed by dotted name (JSON object)")
	_ = cmd.MarkFlagRequired("setting-version")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newMigrateCommand(app *App) *cobra.Command {
	var value, from, to string
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert a value from one version to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := settings.MigrateRequest{
				From:           settings.Version(from),
				To:             settings.Version(to),
				SkipValidation: skipValidation || !app.cfg.Migrate.ValidateResult,
			}
			var err error
			if req.Value, err = requireValue("value", value); err != nil {
				return app.failRequest(err)
			}

			migrated, err := app.engine.Migrate(req)
			if err != nil {
				return app.failRequest(err)
			}
			return app.print(migrated)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "the value to migrate (JSON object)")
	cmd.Flags().StringVar(&from, "from-version", "", "version of the value")
	cmd.Flags().StringVar(&to, "target-version", "", "version to migrate to")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "do not validate the migrated value")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("from-version")
	_ = cmd.MarkFlagRequired("target-version")
	return cmd
}

func newFloodMigrateCommand(app *App) *cobra.Command {
	var value, from string
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "flood-migrate",
		Short: "Convert a value into every version the extension declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := settings.FloodMigrateRequest{
				From:           settings.Version(from),
				SkipValidation: skipValidation || !app.cfg.Migrate.ValidateResult,
			}
			var err error
			if req.Value, err = requireValue("value", value); err != nil {
				return app.failRequest(err)
			}

			migrated, err := app.engine.FloodMigrate(req)
			if err != nil {
				return app.failRequest(err)
			}
			return app.print(migrated)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "the value to migrate (JSON object)")
	cmd.Flags().StringVar(&from, "from-version", "", "version of the value")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "do not validate the migrated values")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("from-version")
	return cmd
}

func newVersionsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the versions the extension declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.print(versionsResult{
				Extension:   app.engine.Name(),
				Versions:    app.engine.Versions(),
				FieldPolicy: app.engine.FieldPolicy().String(),
			})
		},
	}
}

// requireValue is parseValue for flags that must hold an object.
func requireValue(flag, raw string) (settings.Value, error) {
	v, err := parseValue(flag, raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse --" + flag).
			WithIssue(issue.InvalidInputId).
			WithSuggestion("Pass a JSON object; use '{}' for an empty value").
			Wrap(errNotAnObject).
			BuildError()
	}
	return v, nil
}

// print writes a successful result to stdout.
func (a *App) print(result any) error {
	if err := writeResult(a.stdout, a.cfg.Output, result); err != nil {
		return a.fail(err, ExitFailure)
	}
	return nil
}

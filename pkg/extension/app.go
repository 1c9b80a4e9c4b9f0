// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nodesettings/settings-sdk/internal/config"
	"github.com/nodesettings/settings-sdk/internal/issue"
	"github.com/nodesettings/settings-sdk/pkg/settings"
)

type (
	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// App wires one settings extension to the command tree. It is the
	// composition root for a single invocation and is not reused across runs.
	App struct {
		Config ConfigProvider

		ext    *settings.Extension
		stdout io.Writer
		stderr io.Writer

		flags rootFlags

		// Set by prepare before any protocol command runs.
		cfg    *config.Config
		engine *settings.Extension
		logger *log.Logger
	}

	// rootFlags holds the persistent flag values of one invocation.
	rootFlags struct {
		configPath string
		logLevel   string
		output     string
		verbose    bool
	}
)

// NewApp creates an App for ext.
func NewApp(ext *settings.Extension, deps Dependencies) (*App, error) {
	if ext == nil {
		return nil, errors.New("extension must not be nil")
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		ext:    ext,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		cfg:    config.DefaultConfig(),
		engine: ext,
		logger: log.New(io.Discard),
	}, nil
}

// prepare loads configuration, applies flag overrides and builds the logger.
func (a *App) prepare(ctx context.Context) error {
	// Until the configuration is known, failures honor the flags alone.
	a.cfg.UI.Verbose = a.flags.verbose

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return a.fail(err, ExitUsage)
	}
	if err := applyFlags(cfg, a.flags); err != nil {
		return a.fail(issue.NewErrorContext().
			WithOperation("apply flags").
			WithIssue(issue.InvalidInputId).
			Wrap(err).
			BuildError(), ExitUsage)
	}
	a.cfg = cfg

	logger, err := newLogger(a.stderr, a.ext.Name(), cfg.LogLevel)
	if err != nil {
		return a.fail(err, ExitUsage)
	}
	a.logger = logger
	a.engine = a.ext.UseLogger(logger)
	a.logger.Debug("configuration loaded", "format", cfg.Output.Format, "validate_result", cfg.Migrate.ValidateResult)
	return nil
}

// applyFlags overlays explicit flags on the loaded configuration.
// --verbose only raises verbosity; it never lowers a configured level.
func applyFlags(cfg *config.Config, flags rootFlags) error {
	if flags.output != "" {
		format := config.OutputFormat(flags.output)
		if valid, errs := format.IsValid(); !valid {
			return errs[0]
		}
		cfg.Output.Format = format
	}
	if flags.logLevel != "" {
		level := config.LogLevel(flags.logLevel)
		if valid, errs := level.IsValid(); !valid {
			return errs[0]
		}
		cfg.LogLevel = level
	}
	if flags.verbose {
		cfg.UI.Verbose = true
		if flags.logLevel == "" {
			cfg.LogLevel = config.LogLevelDebug
		}
	}
	return nil
}

// newLogger creates the stderr logger used by the engine and the commands.
func newLogger(w io.Writer, prefix string, level config.LogLevel) (*log.Logger, error) {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  lvl,
	}), nil
}

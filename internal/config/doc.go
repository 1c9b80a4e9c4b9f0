// SPDX-License-Identifier: MPL-2.0

// Package config handles the host configuration of settings extension binaries
// using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/settings-sdk/config.cue (or XDG equivalent on
// Linux, ~/Library/Application Support/settings-sdk/config.cue on macOS,
// %APPDATA%\settings-sdk\config.cue on Windows). Every key may be overridden by an
// environment variable: output.format becomes SETTINGS_SDK_OUTPUT_FORMAT.
//
// Configuration files are validated against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
